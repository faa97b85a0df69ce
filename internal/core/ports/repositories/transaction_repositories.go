package repositories

import (
	"context"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
)

// TransactionStore is the persistence adapter contract consumed by the ledger
// engine. Writes are best-effort from the engine's perspective: a failed save
// is reported but never rolls back an already-applied balance mutation.
type TransactionStore interface {
	// SaveTransaction durably records a transaction.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// SaveReversal durably records a reversal marker keyed by the original
	// transaction id. Implementations must enforce uniqueness on that key.
	SaveReversal(ctx context.Context, record domain.ReversalRecord) error

	// LoadTransactions returns the full transaction log, newest first.
	// Used at startup to rehydrate the engine's in-memory log.
	LoadTransactions(ctx context.Context) ([]domain.Transaction, error)

	// LoadReversals returns all reversal records, used to rebuild the
	// reversed-id index at startup.
	LoadReversals(ctx context.Context) ([]domain.ReversalRecord, error)

	// IsTransactionReversed reports whether a reversal record exists for the
	// given transaction id. The engine uses this as a durable cross-check in
	// addition to its in-memory index.
	IsTransactionReversed(ctx context.Context, transactionID string) (bool, error)
}
