package services

import (
	"context"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	"github.com/mkilifi/treasury-ledger/internal/dto"
)

// LedgerReaderSvc defines read operations over the account set and
// transaction log. Reads may run concurrently and observe a consistent
// snapshot.
type LedgerReaderSvc interface {
	// GetTransaction retrieves a single transaction by id.
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions returns the filtered transaction log, newest first.
	// Filter fields combine by conjunction; absent fields match everything.
	ListTransactions(ctx context.Context, filter dto.TransactionFilter) []domain.Transaction

	// IsReversed reports whether a reversal record exists for the given id.
	IsReversed(ctx context.Context, transactionID string) bool

	// ListAccounts returns all accounts in their seed order.
	ListAccounts(ctx context.Context) []domain.Account

	// GetAccount retrieves a single account by id.
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// LedgerWriterSvc defines the mutating ledger operations. Implementations
// serialize these end-to-end: validate-then-apply is the atomic unit.
type LedgerWriterSvc interface {
	// Transfer executes a same- or cross-currency transfer between accounts.
	Transfer(ctx context.Context, req dto.TransferRequest) (*domain.Transaction, error)

	// Reverse reverses a previously completed transfer exactly once.
	Reverse(ctx context.Context, transactionID string, reason string) (*domain.Transaction, error)
}

// LedgerSvcFacade combines all ledger engine operations.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}

// ReportingSvc provides read-only statistics over the transaction log.
type ReportingSvc interface {
	// TreasurySummary aggregates balances and transaction activity.
	TreasurySummary(ctx context.Context) (*dto.TreasurySummary, error)
}
