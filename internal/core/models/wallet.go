package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Wallet is the reply of GET /transactions/wallet/detail/.
type Wallet struct {
	Balance  decimal.Decimal `json:"balance"`
	Username string          `json:"username"`
}

// OperationType distinguishes the two wizard flows.
type OperationType string

const (
	// OperationDeposit - funds sent to the platform
	OperationDeposit OperationType = "DEPOSIT"
	// OperationWithdraw - payout request
	OperationWithdraw OperationType = "WITHDRAW"
)

// TransactionStatus is the review state of a deposit or withdrawal.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionApproved TransactionStatus = "approved"
	TransactionRejected TransactionStatus = "rejected"
)

// Normalize lower-cases the status; anything unknown is treated as pending.
func (s TransactionStatus) Normalize() TransactionStatus {
	switch TransactionStatus(strings.ToLower(strings.TrimSpace(string(s)))) {
	case TransactionApproved:
		return TransactionApproved
	case TransactionRejected:
		return TransactionRejected
	default:
		return TransactionPending
	}
}

// TransactionLog is one row of the deposit or withdrawal history.
type TransactionLog struct {
	ID            int64             `json:"id"`
	Amount        decimal.Decimal   `json:"amount"`
	Method        string            `json:"method"`
	Status        TransactionStatus `json:"status"`
	TransactionID string            `json:"transaction_id,omitempty"`
	AccountOwner  string            `json:"account_owner,omitempty"`
	CreatedAt     Timestamp         `json:"created_at"`
}
