package dto

import (
	"time"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest is the payload for initiating a transfer between accounts.
type TransferRequest struct {
	SourceAccountID string          `json:"sourceAccountId" binding:"required"`
	TargetAccountID string          `json:"targetAccountId" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Note            string          `json:"note"`
	ScheduledDate   *time.Time      `json:"scheduledDate"`
}

// ReverseRequest is the optional payload accompanying a reversal.
type ReverseRequest struct {
	Reason string `json:"reason"`
}

// TransactionFilter holds optional criteria for listing transactions.
// All fields are optional and combine by conjunction. AccountID matches
// either leg of a transaction; Currency matches either denominated side.
type TransactionFilter struct {
	AccountID *string                   `form:"accountId"`
	Currency  *domain.Currency          `form:"currency" binding:"omitempty,currency"`
	Status    *domain.TransactionStatus `form:"status" binding:"omitempty,oneof=pending scheduled completed"`
	Type      *domain.TransactionType   `form:"type" binding:"omitempty,oneof=transfer reversal"`
}

// ListTransactionsParams extends the filter with token pagination controls.
type ListTransactionsParams struct {
	TransactionFilter
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// TransactionResponse is the API representation of a ledger transaction.
type TransactionResponse struct {
	ID                    string                   `json:"id"`
	SourceAccountID       string                   `json:"sourceAccountId"`
	TargetAccountID       string                   `json:"targetAccountId"`
	SourceAccountName     string                   `json:"sourceAccountName"`
	TargetAccountName     string                   `json:"targetAccountName"`
	Amount                decimal.Decimal          `json:"amount"`
	SourceCurrency        domain.Currency          `json:"sourceCurrency"`
	TargetCurrency        domain.Currency          `json:"targetCurrency"`
	ExchangeRate          decimal.Decimal          `json:"exchangeRate"`
	ConvertedAmount       decimal.Decimal          `json:"convertedAmount"`
	Fee                   decimal.Decimal          `json:"fee"`
	FeePercent            decimal.Decimal          `json:"feePercent"`
	Note                  string                   `json:"note"`
	Timestamp             time.Time                `json:"timestamp"`
	ScheduledDate         *time.Time               `json:"scheduledDate,omitempty"`
	Status                domain.TransactionStatus `json:"status"`
	Type                  domain.TransactionType   `json:"type"`
	Reversible            bool                     `json:"reversible"`
	OriginalTransactionID *string                  `json:"originalTransactionId,omitempty"`
}

// ListTransactionsResponse wraps a page of transactions with the token for
// the next page, if any.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse maps a domain transaction to its API representation.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.TransactionID,
		SourceAccountID:       t.SourceAccountID,
		TargetAccountID:       t.TargetAccountID,
		SourceAccountName:     t.SourceAccountName,
		TargetAccountName:     t.TargetAccountName,
		Amount:                t.Amount,
		SourceCurrency:        t.SourceCurrency,
		TargetCurrency:        t.TargetCurrency,
		ExchangeRate:          t.ExchangeRate,
		ConvertedAmount:       t.ConvertedAmount,
		Fee:                   t.Fee,
		FeePercent:            t.FeePercent,
		Note:                  t.Note,
		Timestamp:             t.Timestamp,
		ScheduledDate:         t.ScheduledDate,
		Status:                t.Status,
		Type:                  t.Type,
		Reversible:            t.Reversible,
		OriginalTransactionID: t.OriginalTransactionID,
	}
}

// ToTransactionResponses maps a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}
