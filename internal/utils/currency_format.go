package utils

import (
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FormatWithSymbol renders an amount with its currency symbol at two decimal
// places, e.g. "KSh 2500000.00".
func FormatWithSymbol(amount decimal.Decimal, currency domain.Currency) string {
	symbol := string(currency)
	for _, c := range domain.SupportedCurrencies {
		if c.Code == currency {
			symbol = c.Symbol
			break
		}
	}
	return symbol + " " + amount.StringFixed(2)
}
