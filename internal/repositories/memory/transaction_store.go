package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkilifi/treasury-ledger/internal/apperrors"
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portsrepo "github.com/mkilifi/treasury-ledger/internal/core/ports/repositories"
)

// TransactionStore is an in-memory implementation of the persistence adapter,
// used in demo mode and in tests. It mirrors the durable store's contract,
// including the uniqueness constraint on reversal records.
type TransactionStore struct {
	mu           sync.RWMutex
	transactions []domain.Transaction // newest first
	reversals    map[string]domain.ReversalRecord
}

// NewTransactionStore creates an empty in-memory store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		reversals: make(map[string]domain.ReversalRecord),
	}
}

// Ensure TransactionStore implements portsrepo.TransactionStore
var _ portsrepo.TransactionStore = (*TransactionStore)(nil)

// SaveTransaction records a transaction, newest first.
func (s *TransactionStore) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]domain.Transaction{txn}, s.transactions...)
	return nil
}

// SaveReversal records a reversal marker, enforcing at most one per original
// transaction id.
func (s *TransactionStore) SaveReversal(ctx context.Context, record domain.ReversalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reversals[record.OriginalTransactionID]; exists {
		return fmt.Errorf("%w: reversal already recorded for transaction %s",
			apperrors.ErrConflict, record.OriginalTransactionID)
	}
	s.reversals[record.OriginalTransactionID] = record
	return nil
}

// LoadTransactions returns a copy of the stored log, newest first.
func (s *TransactionStore) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

// LoadReversals returns a copy of all stored reversal records.
func (s *TransactionStore) LoadReversals(ctx context.Context) ([]domain.ReversalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ReversalRecord, 0, len(s.reversals))
	for _, rec := range s.reversals {
		out = append(out, rec)
	}
	return out, nil
}

// IsTransactionReversed reports whether a reversal record exists for the id.
func (s *TransactionStore) IsTransactionReversed(ctx context.Context, transactionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reversals[transactionID]
	return ok, nil
}
