package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	t.Run("yesterday to tomorrow", func(t *testing.T) {
		got := Progress(now.Add(-day), now.Add(day), now)
		assert.Greater(t, got.PercentComplete, 0.0)
		assert.Less(t, got.PercentComplete, 100.0)
		assert.InDelta(t, 50.0, got.PercentComplete, 0.001)
		assert.Equal(t, 1, got.DaysRemaining)
		assert.Equal(t, 2, got.TotalDays)
	})

	t.Run("at start", func(t *testing.T) {
		got := Progress(now, now.Add(30*day), now)
		assert.Equal(t, 0.0, got.PercentComplete)
		assert.Equal(t, 30, got.DaysRemaining)
	})

	t.Run("not started", func(t *testing.T) {
		got := Progress(now.Add(day), now.Add(11*day), now)
		assert.Equal(t, 0.0, got.PercentComplete)
		assert.Equal(t, 11, got.DaysRemaining)
	})

	t.Run("at end", func(t *testing.T) {
		got := Progress(now.Add(-30*day), now, now)
		assert.Equal(t, 100.0, got.PercentComplete)
		assert.Equal(t, 0, got.DaysRemaining)
	})

	t.Run("after end", func(t *testing.T) {
		got := Progress(now.Add(-30*day), now.Add(-day), now)
		assert.Equal(t, 100.0, got.PercentComplete)
		assert.Equal(t, 0, got.DaysRemaining)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		got := Progress(now.Add(-day), now.Add(2*time.Hour), now)
		assert.Equal(t, 1, got.DaysRemaining)
	})

	t.Run("one second before end stays below 100", func(t *testing.T) {
		got := Progress(now.Add(-30*day), now.Add(time.Second), now)
		assert.Equal(t, maxRunningPercent, got.PercentComplete)
	})

	t.Run("degenerate range", func(t *testing.T) {
		got := Progress(now, now.Add(-day), now)
		assert.Equal(t, ProgressResult{PercentComplete: 100}, got)
	})
}

func TestProgressStaysInBounds(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	day := 24 * time.Hour

	for _, length := range []time.Duration{time.Hour, day, 7*day + 5*time.Hour, 90 * day} {
		end := start.Add(length)
		prev := ProgressResult{PercentComplete: -1, DaysRemaining: math.MaxInt}

		for now := start.Add(-3 * day); !now.After(end.Add(3 * day)); now = now.Add(37 * time.Minute) {
			got := Progress(start, end, now)

			assert.GreaterOrEqual(t, got.PercentComplete, 0.0, "now=%s", now)
			assert.LessOrEqual(t, got.PercentComplete, 100.0, "now=%s", now)
			assert.GreaterOrEqual(t, got.DaysRemaining, 0, "now=%s", now)
			assert.GreaterOrEqual(t, got.PercentComplete, prev.PercentComplete, "now=%s", now)
			assert.LessOrEqual(t, got.DaysRemaining, prev.DaysRemaining, "now=%s", now)
			if now.Before(end) {
				assert.Less(t, got.PercentComplete, 100.0, "now=%s", now)
			}
			prev = got
		}
	}
}
