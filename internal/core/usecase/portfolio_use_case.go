package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/shopspring/decimal"
)

type PortfolioUsecase interface {
	Overview(ctx context.Context) (ProfitSummary, error)
	PlanHistory(ctx context.Context) (PlanStats, error)
}

// PlanStats summarises every enrollment the user ever had.
type PlanStats struct {
	Plans         []models.PlanEnrollment `json:"plans"`
	Total         int                     `json:"total"`
	Active        int                     `json:"active"`
	Expired       int                     `json:"expired"`
	Completed     int                     `json:"completed"`
	TotalInvested decimal.Decimal         `json:"total_investment"`
}

type portfolioUsecase struct {
	gateway repository.BackendGateway
	log     logger.Logger
	now     func() time.Time
}

func NewPortfolioUsecase(gateway repository.BackendGateway, log logger.Logger, now func() time.Time) PortfolioUsecase {
	if now == nil {
		now = time.Now
	}
	return &portfolioUsecase{gateway: gateway, log: log, now: now}
}

// Overview fetches enrollments and profit records on every call; earnings
// move daily so nothing is cached.
func (u *portfolioUsecase) Overview(ctx context.Context) (ProfitSummary, error) {
	enrollments, err := u.gateway.PlanHistory(ctx)
	if err != nil {
		return ProfitSummary{}, fmt.Errorf("fetch plan history: %w", err)
	}

	records, err := u.gateway.ProfitHistory(ctx)
	if err != nil {
		return ProfitSummary{}, fmt.Errorf("fetch profit history: %w", err)
	}

	summary := Aggregate(enrollments, records).WithProgress(u.now())
	for _, p := range summary.PerPlan {
		if !p.Matched {
			u.log.Debug("No profit record for active plan",
				logger.StringField("plan", p.PlanTitle),
				logger.StringField("start_date", p.StartDate.String()))
		}
	}
	return summary, nil
}

func (u *portfolioUsecase) PlanHistory(ctx context.Context) (PlanStats, error) {
	enrollments, err := u.gateway.PlanHistory(ctx)
	if err != nil {
		return PlanStats{}, fmt.Errorf("fetch plan history: %w", err)
	}

	stats := PlanStats{
		Plans:         enrollments,
		Total:         len(enrollments),
		TotalInvested: decimal.Zero,
	}
	if stats.Plans == nil {
		stats.Plans = []models.PlanEnrollment{}
	}
	for _, e := range enrollments {
		switch e.Status {
		case models.EnrollmentActive:
			stats.Active++
		case models.EnrollmentExpired:
			stats.Expired++
		case models.EnrollmentCompleted:
			stats.Completed++
		}
		stats.TotalInvested = stats.TotalInvested.Add(e.Amount)
	}
	return stats, nil
}
