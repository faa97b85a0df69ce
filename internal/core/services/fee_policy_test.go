package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/mkilifi/treasury-ledger/internal/core/services"
)

func TestFeePolicy_Quote(t *testing.T) {
	policy := services.NewDefaultFeePolicy()
	amount := decimal.NewFromInt(1000)

	tests := []struct {
		name        string
		from        domain.Currency
		to          domain.Currency
		wantPercent string
		wantFee     string
	}{
		{"same currency KES", domain.KES, domain.KES, "0.1", "1"},
		{"same currency USD", domain.USD, domain.USD, "0.1", "1"},
		{"KES source", domain.KES, domain.USD, "0.5", "5"},
		{"KES target", domain.USD, domain.KES, "0.5", "5"},
		{"NGN source", domain.NGN, domain.USD, "0.3", "3"},
		{"NGN target", domain.USD, domain.NGN, "0.3", "3"},
		// KES tier outranks NGN when both appear in the pair.
		{"KES beats NGN as source", domain.KES, domain.NGN, "0.5", "5"},
		{"KES beats NGN as target", domain.NGN, domain.KES, "0.5", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, percent := policy.Quote(amount, tt.from, tt.to)
			assert.True(t, percent.Equal(decimal.RequireFromString(tt.wantPercent)),
				"percent: got %s, want %s", percent, tt.wantPercent)
			assert.True(t, fee.Equal(decimal.RequireFromString(tt.wantFee)),
				"fee: got %s, want %s", fee, tt.wantFee)
		})
	}
}

func TestFeePolicy_FeeScalesWithAmount(t *testing.T) {
	policy := services.NewDefaultFeePolicy()

	fee, _ := policy.Quote(decimal.RequireFromString("100"), domain.KES, domain.KES)
	assert.True(t, fee.Equal(decimal.RequireFromString("0.10")), "fee was %s", fee)

	fee, _ = policy.Quote(decimal.RequireFromString("0.01"), domain.KES, domain.KES)
	assert.True(t, fee.Equal(decimal.RequireFromString("0.00001")), "fee was %s", fee)
}
