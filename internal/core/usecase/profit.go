package usecase

import (
	"time"

	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/shopspring/decimal"
)

// PlanSummary is an active enrollment merged with its profit record.
type PlanSummary struct {
	PlanTitle     string                  `json:"title"`
	Amount        decimal.Decimal         `json:"amount"`
	StartDate     models.Timestamp        `json:"start_date"`
	EndDate       models.Timestamp        `json:"end_date"`
	Status        models.EnrollmentStatus `json:"status"`
	DailyProfit   decimal.Decimal         `json:"daily_profit"`
	TotalEarned   decimal.Decimal         `json:"total_earned"`
	RemainingDays int                     `json:"remaining_days"`
	ProfitActive  bool                    `json:"is_active_profit"`
	Matched       bool                    `json:"matched"`
	Progress      *ProgressResult         `json:"progress,omitempty"`
}

type ProfitSummary struct {
	PerPlan                 []PlanSummary   `json:"plans"`
	TotalEarnedAcrossActive decimal.Decimal `json:"total_profit"`
	TotalInvested           decimal.Decimal `json:"total_investment"`
}

// Aggregate merges active enrollments with their profit records. Records are
// joined by title, preferring one whose start date also matches; otherwise
// the first record with that title is used. Enrollments without a record are
// kept with zero profit.
func Aggregate(enrollments []models.PlanEnrollment, records []models.ProfitRecord) ProfitSummary {
	summary := ProfitSummary{
		PerPlan:                 []PlanSummary{},
		TotalEarnedAcrossActive: decimal.Zero,
		TotalInvested:           decimal.Zero,
	}

	for _, r := range records {
		if r.IsActive {
			summary.TotalEarnedAcrossActive = summary.TotalEarnedAcrossActive.Add(r.TotalEarned)
		}
	}

	for _, e := range enrollments {
		if !e.IsActive() {
			continue
		}
		summary.TotalInvested = summary.TotalInvested.Add(e.Amount)

		plan := PlanSummary{
			PlanTitle:   e.PlanTitle,
			Amount:      e.Amount,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			Status:      e.Status,
			DailyProfit: decimal.Zero,
			TotalEarned: decimal.Zero,
		}
		if r, ok := matchRecord(e, records); ok {
			plan.DailyProfit = r.DailyProfit
			plan.TotalEarned = r.TotalEarned
			plan.RemainingDays = max(r.RemainingDays, 0)
			plan.ProfitActive = r.IsActive
			plan.Matched = true
		}
		summary.PerPlan = append(summary.PerPlan, plan)
	}

	return summary
}

func matchRecord(e models.PlanEnrollment, records []models.ProfitRecord) (models.ProfitRecord, bool) {
	first := -1
	for i, r := range records {
		if r.PlanTitle != e.PlanTitle {
			continue
		}
		if !r.StartDate.IsZero() && !e.StartDate.IsZero() && r.StartDate.Equal(e.StartDate.Time) {
			return r, true
		}
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return models.ProfitRecord{}, false
	}
	return records[first], true
}

// WithProgress returns a copy of the summary with progress filled in at now.
func (s ProfitSummary) WithProgress(now time.Time) ProfitSummary {
	out := s
	out.PerPlan = make([]PlanSummary, len(s.PerPlan))
	for i, p := range s.PerPlan {
		progress := Progress(p.StartDate.Time, p.EndDate.Time, now)
		p.Progress = &progress
		out.PerPlan[i] = p
	}
	return out
}
