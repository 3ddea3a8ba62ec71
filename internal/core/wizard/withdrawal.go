package wizard

import (
	"context"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/Nzyazin/invest/internal/core/usecase"
	"github.com/shopspring/decimal"
)

const FlowWithdrawal = "withdrawal"

type WithdrawalStep int

const (
	WithdrawalMethod WithdrawalStep = iota + 1
	WithdrawalDetails
	WithdrawalSuccess
)

func (s WithdrawalStep) String() string {
	switch s {
	case WithdrawalMethod:
		return "method"
	case WithdrawalDetails:
		return "details"
	case WithdrawalSuccess:
		return "success"
	default:
		return "unknown"
	}
}

type WithdrawalConfig struct {
	Minimum decimal.Decimal
}

type WithdrawalWizard = Wizard[WithdrawalStep, models.TransactionDraft]

// NewWithdrawalWizard builds the Method, Details flow. The amount is entered
// together with the payout account on the Details step.
func NewWithdrawalWizard(cfg WithdrawalConfig, gw repository.BackendGateway, sess *session.Context, log logger.Logger, obs Observer) *WithdrawalWizard {
	validateMethod := func(d *models.TransactionDraft) error {
		if d.Method == "" {
			return usecase.ErrMethodRequired
		}
		_, err := usecase.FieldsRequiredFor(d.Method)
		return err
	}

	validateDetails := func(d *models.TransactionDraft) error {
		valid, err := usecase.ValidateAmount(d.AmountInput, cfg.Minimum, nil)
		if err != nil {
			return err
		}
		d.Amount = valid.Value
		return usecase.ValidateMethodFields(d)
	}

	flow := Flow[WithdrawalStep, models.TransactionDraft]{
		Name:    FlowWithdrawal,
		Steps:   []WithdrawalStep{WithdrawalMethod, WithdrawalDetails},
		Success: WithdrawalSuccess,
		Validators: map[WithdrawalStep]Validator[models.TransactionDraft]{
			WithdrawalMethod:  validateMethod,
			WithdrawalDetails: validateDetails,
		},
		Submit: func(ctx context.Context, d *models.TransactionDraft) (models.Acknowledgement, error) {
			return gw.SubmitWithdrawal(ctx, WithdrawalRequestFrom(d))
		},
		NewDraft:   models.NewTransactionDraft,
		CloneDraft: (*models.TransactionDraft).Clone,
	}
	return New(flow, sess, log, obs)
}

func WithdrawalRequestFrom(d *models.TransactionDraft) models.WithdrawalRequest {
	req := models.WithdrawalRequest{
		Amount:       d.Amount,
		Method:       d.Method,
		AccountOwner: d.Field(models.FieldAccountOwnerName),
		BankAccount:  accountOf(d),
	}
	if d.Method == models.MethodBankTransfer {
		req.BankName = d.Field(models.FieldBankName)
	}
	return req
}
