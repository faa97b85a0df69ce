package services

import (
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FeePolicy maps a currency pair to a transaction fee percentage. The rule
// table is policy, not derived data; first matching rule wins:
// same currency, then the KES tier, then the NGN tier, then the default
// cross-USD tier.
type FeePolicy struct {
	SameCurrencyPercent decimal.Decimal
	KESTierPercent      decimal.Decimal
	NGNTierPercent      decimal.Decimal
	DefaultPercent      decimal.Decimal
}

// NewDefaultFeePolicy returns the standard treasury fee table.
func NewDefaultFeePolicy() *FeePolicy {
	return &FeePolicy{
		SameCurrencyPercent: decimal.NewFromFloat(0.10),
		KESTierPercent:      decimal.NewFromFloat(0.50),
		NGNTierPercent:      decimal.NewFromFloat(0.30),
		DefaultPercent:      decimal.NewFromFloat(0.25),
	}
}

var oneHundred = decimal.NewFromInt(100)

// Quote computes the fee for transferring amount from one currency to
// another. It returns the fee amount (denominated in the source currency)
// and the applied percentage.
func (p *FeePolicy) Quote(amount decimal.Decimal, from, to domain.Currency) (fee, percent decimal.Decimal) {
	switch {
	case from == to:
		percent = p.SameCurrencyPercent
	case from == domain.KES || to == domain.KES:
		percent = p.KESTierPercent
	case from == domain.NGN || to == domain.NGN:
		percent = p.NGNTierPercent
	default:
		percent = p.DefaultPercent
	}
	fee = amount.Mul(percent).Div(oneHundred)
	return fee, percent
}
