package domain

import (
	"github.com/shopspring/decimal"
)

// Account represents a named cash account denominated in a single currency.
// Balances are decimal quantities; the engine checks availability before
// debiting, so an account never goes negative through a transfer or reversal.
type Account struct {
	AccountID string          `json:"id"`
	Name      string          `json:"name"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
}
