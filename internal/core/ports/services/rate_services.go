package services

import (
	"time"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RateProvider supplies conversion rates for currency pairs. Lookups never
// fail: when a live quote is unavailable the provider falls back to its
// last-known or seed rates, and unknown pairs resolve to 1.
type RateProvider interface {
	// Rate returns the current conversion rate from one currency to another.
	Rate(from, to domain.Currency) decimal.Decimal

	// RateWithSpread returns the rate with a trading spread added on top,
	// expressed as a percentage of the base rate.
	RateWithSpread(from, to domain.Currency, spreadPercent decimal.Decimal) decimal.Decimal

	// IsLive reports whether the current rates come from a recent live fetch
	// rather than the seed table.
	IsLive() bool

	// LastUpdate returns the instant of the last successful live refresh,
	// or the zero time if rates have never been refreshed.
	LastUpdate() time.Time

	// AllRates returns a snapshot copy of the full rate table along with the
	// last refresh instant and whether the table is live.
	AllRates() (map[domain.Currency]map[domain.Currency]decimal.Decimal, time.Time, bool)
}
