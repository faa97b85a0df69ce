package seed

import (
	"github.com/shopspring/decimal"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
)

// Accounts returns the demo treasury accounts the ledger boots with.
// Balances are fresh copies on every call so callers can mutate freely.
func Accounts() []domain.Account {
	return []domain.Account{
		{AccountID: "mpesa_kes_1", Name: "Mpesa KES 1", Currency: domain.KES, Balance: decimal.NewFromInt(2_500_000)},
		{AccountID: "mpesa_kes_2", Name: "Mpesa KES 2", Currency: domain.KES, Balance: decimal.NewFromInt(1_800_000)},
		{AccountID: "bank_kes_1", Name: "Bank KES 1", Currency: domain.KES, Balance: decimal.NewFromInt(5_200_000)},
		{AccountID: "bank_usd_1", Name: "Bank USD 1", Currency: domain.USD, Balance: decimal.NewFromInt(45_000)},
		{AccountID: "bank_usd_2", Name: "Bank USD 2", Currency: domain.USD, Balance: decimal.NewFromInt(32_000)},
		{AccountID: "bank_usd_3", Name: "Bank USD 3", Currency: domain.USD, Balance: decimal.NewFromInt(28_500)},
		{AccountID: "wallet_ngn_1", Name: "Wallet NGN 1", Currency: domain.NGN, Balance: decimal.NewFromInt(8_500_000)},
		{AccountID: "wallet_ngn_2", Name: "Wallet NGN 2", Currency: domain.NGN, Balance: decimal.NewFromInt(6_200_000)},
		{AccountID: "corporate_ngn_1", Name: "Corporate NGN 1", Currency: domain.NGN, Balance: decimal.NewFromInt(12_000_000)},
		{AccountID: "reserve_usd_1", Name: "Reserve USD 1", Currency: domain.USD, Balance: decimal.NewFromInt(75_000)},
	}
}
