package services

import (
	"context"
	"fmt"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portsrepo "github.com/mkilifi/treasury-ledger/internal/core/ports/repositories"
	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
)

// NewServiceContainer wires the ledger engine, rate provider and reporting
// service together from the injected store and seed accounts.
func NewServiceContainer(ctx context.Context, store portsrepo.TransactionStore, rates *FxRateService, seedAccounts []domain.Account) (*portssvc.ServiceContainer, error) {
	ledger, err := NewLedgerService(ctx, store, rates, NewDefaultFeePolicy(), seedAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger service: %w", err)
	}

	return &portssvc.ServiceContainer{
		Ledger:    ledger,
		Rates:     rates,
		Reporting: NewReportingService(ledger),
	}, nil
}
