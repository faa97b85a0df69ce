package dto

import (
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountResponse is the API representation of a treasury account.
type AccountResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Currency domain.Currency `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// ToAccountResponse maps a domain account to its API representation.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:       a.AccountID,
		Name:     a.Name,
		Currency: a.Currency,
		Balance:  a.Balance,
	}
}

// ToAccountResponses maps a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}
