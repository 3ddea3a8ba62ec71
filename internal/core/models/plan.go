package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// InvestmentPlan is a plan template offered by the backend.
type InvestmentPlan struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	DailyProfit  decimal.Decimal `json:"daily_profit"`
	DurationDays int             `json:"duration_days"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	IsLocked     bool            `json:"is_locked"`
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "Active"
	EnrollmentExpired   EnrollmentStatus = "Expired"
	EnrollmentCompleted EnrollmentStatus = "Completed"
)

// UnmarshalJSON accepts any casing of the status.
func (s *EnrollmentStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		*s = EnrollmentActive
	case "expired":
		*s = EnrollmentExpired
	case "completed":
		*s = EnrollmentCompleted
	default:
		*s = EnrollmentStatus(raw)
	}
	return nil
}

// PlanEnrollment is a user's instance of a plan. Status is owned by the backend.
type PlanEnrollment struct {
	ID        int64            `json:"id,omitempty"`
	PlanTitle string           `json:"title"`
	Amount    decimal.Decimal  `json:"amount"`
	StartDate Timestamp        `json:"start_date"`
	EndDate   Timestamp        `json:"end_date"`
	Status    EnrollmentStatus `json:"status"`
}

func (e PlanEnrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}

// ProfitRecord holds the moving earnings figures of one enrollment. It is
// keyed by plan title; StartDate is set only when the backend provides it.
type ProfitRecord struct {
	PlanTitle     string          `json:"plan"`
	DailyProfit   decimal.Decimal `json:"daily_profit"`
	TotalEarned   decimal.Decimal `json:"total_earned"`
	RemainingDays int             `json:"remaining_days"`
	IsActive      bool            `json:"is_active"`
	StartDate     Timestamp       `json:"start_date,omitempty"`
}
