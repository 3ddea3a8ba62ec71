package usecase

import (
	"context"
	"fmt"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/shopspring/decimal"
)

type HistoryUsecase interface {
	History(ctx context.Context, op models.OperationType) (TransactionHistory, error)
	Dashboard(ctx context.Context, displayName string) (Dashboard, error)
}

// TransactionHistory is a deposit or withdrawal log with its counters.
type TransactionHistory struct {
	Operation   models.OperationType    `json:"operation"`
	Entries     []models.TransactionLog `json:"entries"`
	Total       int                     `json:"total"`
	Approved    int                     `json:"approved"`
	Pending     int                     `json:"pending"`
	Rejected    int                     `json:"rejected"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
}

// Dashboard is the landing page: balance, greeting and the plan catalogue.
type Dashboard struct {
	DisplayName string                  `json:"display_name"`
	Balance     decimal.Decimal         `json:"balance"`
	Plans       []models.InvestmentPlan `json:"plans"`
}

type historyUsecase struct {
	gateway repository.BackendGateway
	log     logger.Logger
}

func NewHistoryUsecase(gateway repository.BackendGateway, log logger.Logger) HistoryUsecase {
	return &historyUsecase{gateway: gateway, log: log}
}

func (u *historyUsecase) History(ctx context.Context, op models.OperationType) (TransactionHistory, error) {
	var (
		entries []models.TransactionLog
		err     error
	)
	switch op {
	case models.OperationDeposit:
		entries, err = u.gateway.DepositHistory(ctx)
	case models.OperationWithdraw:
		entries, err = u.gateway.WithdrawalHistory(ctx)
	default:
		return TransactionHistory{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	if err != nil {
		return TransactionHistory{}, fmt.Errorf("fetch %s history: %w", op, err)
	}

	history := TransactionHistory{
		Operation:   op,
		Entries:     make([]models.TransactionLog, 0, len(entries)),
		Total:       len(entries),
		TotalAmount: decimal.Zero,
	}
	for _, e := range entries {
		e.Status = e.Status.Normalize()
		switch e.Status {
		case models.TransactionApproved:
			history.Approved++
		case models.TransactionRejected:
			history.Rejected++
		default:
			history.Pending++
		}
		history.TotalAmount = history.TotalAmount.Add(e.Amount)
		history.Entries = append(history.Entries, e)
	}
	return history, nil
}

// Dashboard prefers the backend's username over the name decoded from the
// token.
func (u *historyUsecase) Dashboard(ctx context.Context, displayName string) (Dashboard, error) {
	wallet, err := u.gateway.WalletDetail(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("fetch wallet: %w", err)
	}

	plans, err := u.gateway.ListPlans(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list plans: %w", err)
	}
	if plans == nil {
		plans = []models.InvestmentPlan{}
	}

	dashboard := Dashboard{DisplayName: displayName, Balance: wallet.Balance, Plans: plans}
	if wallet.Username != "" {
		dashboard.DisplayName = wallet.Username
	}
	return dashboard, nil
}
