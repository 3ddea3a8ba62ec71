package usecase

import (
	"math"
	"time"
)

// maxRunningPercent keeps a running plan visibly below 100; 100 means ended.
const maxRunningPercent = 99.99

type ProgressResult struct {
	PercentComplete float64 `json:"percent_complete"`
	DaysRemaining   int     `json:"days_remaining"`
	TotalDays       int     `json:"total_days"`
}

// Progress derives how far a plan is between start and end at now.
func Progress(start, end, now time.Time) ProgressResult {
	if !end.After(start) {
		return ProgressResult{PercentComplete: 100}
	}

	total := end.Sub(start)
	result := ProgressResult{TotalDays: ceilDays(total)}

	switch {
	case now.Before(start):
		result.DaysRemaining = ceilDays(end.Sub(now))
	case !now.Before(end):
		result.PercentComplete = 100
	default:
		elapsed := now.Sub(start)
		percent := float64(elapsed) / float64(total) * 100
		result.PercentComplete = math.Max(0, math.Min(percent, maxRunningPercent))
		result.DaysRemaining = ceilDays(end.Sub(now))
	}
	return result
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
