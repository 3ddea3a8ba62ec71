package wizard

import (
	"context"
	"strings"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/Nzyazin/invest/internal/core/usecase"
	"github.com/shopspring/decimal"
)

const FlowDeposit = "deposit"

type DepositStep int

const (
	DepositAmount DepositStep = iota + 1
	DepositMethod
	DepositProofAndDetails
	DepositSuccess
)

func (s DepositStep) String() string {
	switch s {
	case DepositAmount:
		return "amount"
	case DepositMethod:
		return "method"
	case DepositProofAndDetails:
		return "proof_and_details"
	case DepositSuccess:
		return "success"
	default:
		return "unknown"
	}
}

type DepositConfig struct {
	Minimum       decimal.Decimal
	Presets       []decimal.Decimal
	ProofMaxBytes int64
}

type DepositWizard = Wizard[DepositStep, models.TransactionDraft]

// NewDepositWizard builds the Amount, Method, ProofAndDetails flow.
func NewDepositWizard(cfg DepositConfig, gw repository.BackendGateway, sess *session.Context, log logger.Logger, obs Observer) *DepositWizard {
	validateAmount := func(d *models.TransactionDraft) error {
		valid, err := usecase.ValidateAmount(d.AmountInput, cfg.Minimum, cfg.Presets)
		if err != nil {
			return err
		}
		d.Amount = valid.Value
		return nil
	}

	validateMethod := func(d *models.TransactionDraft) error {
		if d.Method == "" {
			return usecase.ErrMethodRequired
		}
		_, err := usecase.FieldsRequiredFor(d.Method)
		return err
	}

	validateDetails := func(d *models.TransactionDraft) error {
		if err := usecase.ValidateMethodFields(d); err != nil {
			return err
		}
		if strings.TrimSpace(d.ReferenceID) == "" {
			return usecase.ErrReferenceRequired
		}
		return usecase.ValidateProof(d.Proof, cfg.ProofMaxBytes)
	}

	flow := Flow[DepositStep, models.TransactionDraft]{
		Name:    FlowDeposit,
		Steps:   []DepositStep{DepositAmount, DepositMethod, DepositProofAndDetails},
		Success: DepositSuccess,
		Validators: map[DepositStep]Validator[models.TransactionDraft]{
			DepositAmount:          validateAmount,
			DepositMethod:          validateMethod,
			DepositProofAndDetails: validateDetails,
		},
		Submit: func(ctx context.Context, d *models.TransactionDraft) (models.Acknowledgement, error) {
			return gw.SubmitDeposit(ctx, DepositRequestFrom(d))
		},
		NewDraft:   models.NewTransactionDraft,
		CloneDraft: (*models.TransactionDraft).Clone,
	}
	return New(flow, sess, log, obs)
}

// DepositRequestFrom normalises a validated draft into the deposit payload.
// The bank name is only sent for bank transfers; the account is the bank
// account number or the wallet phone number.
func DepositRequestFrom(d *models.TransactionDraft) models.DepositRequest {
	req := models.DepositRequest{
		Amount:        d.Amount,
		Method:        d.Method,
		TransactionID: strings.TrimSpace(d.ReferenceID),
		AccountOwner:  d.Field(models.FieldAccountOwnerName),
		BankAccount:   accountOf(d),
		Screenshot:    d.Proof,
	}
	if d.Method == models.MethodBankTransfer {
		req.BankName = d.Field(models.FieldBankName)
	}
	return req
}

func accountOf(d *models.TransactionDraft) string {
	if d.Method == models.MethodBankTransfer {
		return d.Field(models.FieldAccountNumber)
	}
	return d.Field(models.FieldPhoneNumber)
}
