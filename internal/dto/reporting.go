package dto

import (
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CurrencyTotals aggregates per-currency holdings and completed transfer
// volume measured in the source currency.
type CurrencyTotals struct {
	Currency      domain.Currency `json:"currency"`
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	AccountCount  int             `json:"accountCount"`
	Volume        decimal.Decimal `json:"volume"`
	FeesCollected decimal.Decimal `json:"feesCollected"`
}

// TreasurySummary is a point-in-time report over the account set and
// transaction log.
type TreasurySummary struct {
	Totals           []CurrencyTotals `json:"totals"`
	TransactionCount int              `json:"transactionCount"`
	CompletedCount   int              `json:"completedCount"`
	ScheduledCount   int              `json:"scheduledCount"`
	ReversalCount    int              `json:"reversalCount"`
}
