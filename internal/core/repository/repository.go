package repository

import (
	"context"

	"github.com/Nzyazin/invest/internal/core/models"
)

// BackendGateway is the investment backend as seen by the client core.
type BackendGateway interface {
	SubmitDeposit(ctx context.Context, req models.DepositRequest) (models.Acknowledgement, error)
	SubmitWithdrawal(ctx context.Context, req models.WithdrawalRequest) (models.Acknowledgement, error)
	Invest(ctx context.Context, planID int64) (models.Acknowledgement, error)

	ListPlans(ctx context.Context) ([]models.InvestmentPlan, error)
	PlanHistory(ctx context.Context) ([]models.PlanEnrollment, error)
	ProfitHistory(ctx context.Context) ([]models.ProfitRecord, error)
	WalletDetail(ctx context.Context) (*models.Wallet, error)
	DepositHistory(ctx context.Context) ([]models.TransactionLog, error)
	WithdrawalHistory(ctx context.Context) ([]models.TransactionLog, error)
}
