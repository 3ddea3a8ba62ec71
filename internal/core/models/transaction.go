package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Method is a payment or payout channel. Values are the backend's wire names.
type Method string

const (
	MethodBankTransfer  Method = "BankTransfer"
	MethodMobileWalletA Method = "JazzCash"
	MethodMobileWalletB Method = "EasyPaisa"
)

// ParseMethod accepts wire names and the catalogue aliases, case-insensitively.
func ParseMethod(s string) (Method, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "banktransfer", "bank_transfer", "bank transfer":
		return MethodBankTransfer, true
	case "jazzcash", "mobilewalleta", "mobile_wallet_a":
		return MethodMobileWalletA, true
	case "easypaisa", "mobilewalletb", "mobile_wallet_b":
		return MethodMobileWalletB, true
	default:
		return "", false
	}
}

// FieldName names a method-specific form field.
type FieldName string

const (
	FieldBankName         FieldName = "bankName"
	FieldAccountOwnerName FieldName = "accountOwnerName"
	FieldAccountNumber    FieldName = "accountNumber"
	FieldPhoneNumber      FieldName = "phoneNumber"
)

// Proof is the payment screenshot attached to a deposit.
type Proof struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// TransactionDraft is the in-progress input of one wizard run. It lives only
// in memory and is dropped on success, cancel or session expiry.
type TransactionDraft struct {
	AmountInput  string               `json:"amount_input"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       Method               `json:"method"`
	MethodFields map[FieldName]string `json:"method_fields"`
	Proof        *Proof               `json:"proof,omitempty"`
	ReferenceID  string               `json:"reference_id"`
}

func NewTransactionDraft() *TransactionDraft {
	return &TransactionDraft{MethodFields: map[FieldName]string{}}
}

func (d *TransactionDraft) Field(name FieldName) string {
	return strings.TrimSpace(d.MethodFields[name])
}

func (d *TransactionDraft) SetField(name FieldName, value string) {
	if d.MethodFields == nil {
		d.MethodFields = map[FieldName]string{}
	}
	d.MethodFields[name] = value
}

// Clone returns a deep copy so callers can never reach into wizard state.
func (d *TransactionDraft) Clone() *TransactionDraft {
	if d == nil {
		return nil
	}
	c := *d
	c.MethodFields = make(map[FieldName]string, len(d.MethodFields))
	for k, v := range d.MethodFields {
		c.MethodFields[k] = v
	}
	if d.Proof != nil {
		p := *d.Proof
		p.Data = append([]byte(nil), d.Proof.Data...)
		c.Proof = &p
	}
	return &c
}

// DepositRequest is the normalised body of POST /transactions/deposit/.
type DepositRequest struct {
	Amount        decimal.Decimal
	Method        Method
	TransactionID string
	BankName      string
	AccountOwner  string
	BankAccount   string
	Screenshot    *Proof
}

// WithdrawalRequest is the body of POST /transactions/withdraw/.
type WithdrawalRequest struct {
	Amount       decimal.Decimal
	Method       Method
	BankName     string
	AccountOwner string
	BankAccount  string
}

// InvestRequest is the body of POST /transactions/invest/.
type InvestRequest struct {
	PlanID int64 `json:"plan_id"`
}

// Acknowledgement is the backend's success reply.
type Acknowledgement struct {
	Message string `json:"message"`
}
