package dto

import (
	"time"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RateInfo describes a single currency pair quote.
type RateInfo struct {
	From       domain.Currency `json:"from"`
	To         domain.Currency `json:"to"`
	Rate       decimal.Decimal `json:"rate"`
	Formatted  string          `json:"formatted"`
	IsLive     bool            `json:"isLive"`
	LastUpdate *time.Time      `json:"lastUpdate,omitempty"`
}

// AllRatesResponse is the full rate table snapshot returned by the API.
type AllRatesResponse struct {
	Rates      map[domain.Currency]map[domain.Currency]decimal.Decimal `json:"rates"`
	IsLive     bool                                                    `json:"isLive"`
	LastUpdate *time.Time                                              `json:"lastUpdate,omitempty"`
}
