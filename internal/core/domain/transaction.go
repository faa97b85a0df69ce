package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus indicates the state of a transaction record.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusScheduled TransactionStatus = "scheduled"
	StatusCompleted TransactionStatus = "completed"
)

// TransactionType distinguishes an original transfer from a compensating reversal.
type TransactionType string

const (
	TypeTransfer TransactionType = "transfer"
	TypeReversal TransactionType = "reversal"
)

// Transaction is an immutable ledger record. Amount and Fee are denominated in
// the source currency, ConvertedAmount in the target currency. ExchangeRate
// (source to target) and ConvertedAmount are snapshotted at creation and never
// re-derived from a live rate. OriginalTransactionID is set on reversals only.
type Transaction struct {
	TransactionID         string            `json:"id"`
	SourceAccountID       string            `json:"sourceAccountId"`
	TargetAccountID       string            `json:"targetAccountId"`
	SourceAccountName     string            `json:"sourceAccountName"`
	TargetAccountName     string            `json:"targetAccountName"`
	Amount                decimal.Decimal   `json:"amount"`
	SourceCurrency        Currency          `json:"sourceCurrency"`
	TargetCurrency        Currency          `json:"targetCurrency"`
	ExchangeRate          decimal.Decimal   `json:"exchangeRate"`
	ConvertedAmount       decimal.Decimal   `json:"convertedAmount"`
	Fee                   decimal.Decimal   `json:"fee"`
	FeePercent            decimal.Decimal   `json:"feePercent"`
	Note                  string            `json:"note"`
	Timestamp             time.Time         `json:"timestamp"`
	ScheduledDate         *time.Time        `json:"scheduledDate,omitempty"`
	Status                TransactionStatus `json:"status"`
	Type                  TransactionType   `json:"type"`
	Reversible            bool              `json:"reversible"`
	OriginalTransactionID *string           `json:"originalTransactionId,omitempty"`
}

// IsReversal reports whether the transaction is a compensating reversal.
func (t Transaction) IsReversal() bool {
	return t.Type == TypeReversal
}
