package usecase

import (
	"context"
	"fmt"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
)

type InvestUsecase interface {
	Plans(ctx context.Context) ([]models.InvestmentPlan, error)
	Invest(ctx context.Context, planID int64) (models.Acknowledgement, error)
}

type investUsecase struct {
	gateway repository.BackendGateway
	log     logger.Logger
}

func NewInvestUsecase(gateway repository.BackendGateway, log logger.Logger) InvestUsecase {
	return &investUsecase{gateway: gateway, log: log}
}

func (u *investUsecase) Plans(ctx context.Context) ([]models.InvestmentPlan, error) {
	plans, err := u.gateway.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	if plans == nil {
		plans = []models.InvestmentPlan{}
	}
	return plans, nil
}

// Invest enrolls the user in a plan from the current catalogue. Locked plans
// are refused without calling the backend; balance and duplicate-plan checks
// are the backend's.
func (u *investUsecase) Invest(ctx context.Context, planID int64) (models.Acknowledgement, error) {
	plans, err := u.Plans(ctx)
	if err != nil {
		return models.Acknowledgement{}, err
	}

	var plan *models.InvestmentPlan
	for i := range plans {
		if plans[i].ID == planID {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return models.Acknowledgement{}, fmt.Errorf("%w: %d", ErrPlanNotFound, planID)
	}
	if plan.IsLocked {
		u.log.Warn("Investment in locked plan refused",
			logger.Int64Field("plan_id", plan.ID),
			logger.StringField("plan", plan.Title))
		return models.Acknowledgement{}, fmt.Errorf("%w: %s", ErrPlanLocked, plan.Title)
	}

	ack, err := u.gateway.Invest(ctx, plan.ID)
	if err != nil {
		return models.Acknowledgement{}, fmt.Errorf("invest in %s: %w", plan.Title, err)
	}

	u.log.Info("Investment placed",
		logger.Int64Field("plan_id", plan.ID),
		logger.StringField("amount", plan.Amount.StringFixed(2)))
	return ack, nil
}
