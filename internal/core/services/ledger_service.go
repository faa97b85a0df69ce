package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portsrepo "github.com/mkilifi/treasury-ledger/internal/core/ports/repositories"
	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
	"github.com/mkilifi/treasury-ledger/internal/dto"
	"github.com/mkilifi/treasury-ledger/internal/utils"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccount                 = errors.New("invalid account selection")
	ErrSameAccount                    = errors.New("source and target accounts must differ")
	ErrInvalidAmount                  = errors.New("transfer amount must be positive")
	ErrInsufficientBalance            = errors.New("insufficient balance in source account")
	ErrAlreadyReversed                = errors.New("transaction has already been reversed")
	ErrTransactionNotFound            = errors.New("transaction not found")
	ErrNotCompleted                   = errors.New("only completed transactions can be reversed")
	ErrNotReversible                  = errors.New("this transaction cannot be reversed")
	ErrInsufficientBalanceForReversal = errors.New("insufficient balance in recipient account for reversal")
)

// LedgerService is the ledger engine. It owns the account set, the
// insertion-ordered transaction log (newest first) and the reversed-id index,
// and serializes all mutating operations behind a single write lock so that
// validate-then-apply is the atomic unit. The persistence store and rate
// provider are injected capabilities; the engine works identically against
// the durable and in-memory variants.
type LedgerService struct {
	BaseService

	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	accountOrder []string
	transactions []domain.Transaction // newest first
	reversals    map[string]domain.ReversalRecord

	store portsrepo.TransactionStore
	rates portssvc.RateProvider
	fees  *FeePolicy

	persistFailures int64
}

// NewLedgerService creates the engine from a seed account set and rehydrates
// the transaction log and reversed-id index from the store.
func NewLedgerService(ctx context.Context, store portsrepo.TransactionStore, rates portssvc.RateProvider, fees *FeePolicy, seedAccounts []domain.Account) (*LedgerService, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger service requires a transaction store")
	}
	if rates == nil {
		return nil, fmt.Errorf("ledger service requires a rate provider")
	}
	if fees == nil {
		fees = NewDefaultFeePolicy()
	}

	s := &LedgerService{
		accounts:  make(map[string]*domain.Account, len(seedAccounts)),
		reversals: make(map[string]domain.ReversalRecord),
		store:     store,
		rates:     rates,
		fees:      fees,
	}
	for _, acc := range seedAccounts {
		a := acc
		s.accounts[a.AccountID] = &a
		s.accountOrder = append(s.accountOrder, a.AccountID)
	}

	txns, err := store.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate transaction log: %w", err)
	}
	s.transactions = txns

	records, err := store.LoadReversals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate reversal records: %w", err)
	}
	for _, rec := range records {
		s.reversals[rec.OriginalTransactionID] = rec
	}

	return s, nil
}

// Ensure LedgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

// Transfer validates and executes a transfer between two accounts. The debit
// is amount plus fee; the credit is the amount converted at the snapshotted
// rate. A transfer scheduled for a future date creates a scheduled record and
// mutates no balances — funds are not held or reserved.
func (s *LedgerService) Transfer(ctx context.Context, req dto.TransferRequest) (*domain.Transaction, error) {
	s.mu.Lock()

	source, ok := s.accounts[req.SourceAccountID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: source account %s", ErrInvalidAccount, req.SourceAccountID)
	}
	target, ok := s.accounts[req.TargetAccountID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: target account %s", ErrInvalidAccount, req.TargetAccountID)
	}
	if req.SourceAccountID == req.TargetAccountID {
		s.mu.Unlock()
		return nil, ErrSameAccount
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, req.Amount.String())
	}

	fee, feePercent := s.fees.Quote(req.Amount, source.Currency, target.Currency)
	debit := req.Amount.Add(fee)
	if source.Balance.LessThan(debit) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: need %s %s, have %s", ErrInsufficientBalance,
			debit.String(), source.Currency, source.Balance.String())
	}

	now := time.Now().UTC()
	scheduled := req.ScheduledDate != nil && req.ScheduledDate.After(now)

	// Snapshot the rate at creation; it is never re-derived later.
	rate := decimal.NewFromInt(1)
	converted := req.Amount
	if source.Currency != target.Currency {
		rate = s.rates.Rate(source.Currency, target.Currency)
		converted = req.Amount.Mul(rate)
	}

	status := domain.StatusCompleted
	if scheduled {
		status = domain.StatusScheduled
	}

	txn := domain.Transaction{
		TransactionID:     utils.GenerateTransactionID(),
		SourceAccountID:   source.AccountID,
		TargetAccountID:   target.AccountID,
		SourceAccountName: source.Name,
		TargetAccountName: target.Name,
		Amount:            req.Amount,
		SourceCurrency:    source.Currency,
		TargetCurrency:    target.Currency,
		ExchangeRate:      rate,
		ConvertedAmount:   converted,
		Fee:               fee,
		FeePercent:        feePercent,
		Note:              req.Note,
		Timestamp:         now,
		ScheduledDate:     req.ScheduledDate,
		Status:            status,
		Type:              domain.TypeTransfer,
		Reversible:        true,
	}

	if !scheduled {
		source.Balance = source.Balance.Sub(debit)
		target.Balance = target.Balance.Add(converted)
	}
	s.transactions = append([]domain.Transaction{txn}, s.transactions...)

	s.mu.Unlock()

	s.LogInfo(ctx, "Transfer executed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("source_account", txn.SourceAccountID),
		slog.String("target_account", txn.TargetAccountID),
		slog.String("amount", txn.Amount.String()),
		slog.String("fee", txn.Fee.String()),
		slog.String("status", string(txn.Status)))

	s.persistTransaction(ctx, txn)

	return &txn, nil
}

// Reverse reverses a previously completed transfer exactly once. The
// recipient gives back exactly what was received; the sender gets back
// exactly what was sent. The original fee is sunk and is not refunded.
func (s *LedgerService) Reverse(ctx context.Context, transactionID string, reason string) (*domain.Transaction, error) {
	s.mu.Lock()

	// Idempotency gate: the in-memory index first, then the durable store.
	// A store failure degrades to the in-memory answer rather than blocking
	// the reversal.
	if _, reversed := s.reversals[transactionID]; reversed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, transactionID)
	}
	if durablyReversed, err := s.store.IsTransactionReversed(ctx, transactionID); err != nil {
		s.LogWarn(ctx, "Durable reversed-id check failed, relying on in-memory index",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()))
	} else if durablyReversed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, transactionID)
	}

	original := s.findTransactionLocked(transactionID)
	if original == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}
	if original.Status != domain.StatusCompleted {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: status is %s", ErrNotCompleted, original.Status)
	}
	if !original.Reversible || original.Type == domain.TypeReversal {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotReversible, transactionID)
	}

	source, sourceOK := s.accounts[original.SourceAccountID]
	target, targetOK := s.accounts[original.TargetAccountID]
	if !sourceOK || !targetOK {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: original transaction accounts not found", ErrInvalidAccount)
	}

	// Claw back exactly what was received, never more. This protects against
	// the recipient having already spent the funds below the received amount.
	reversalAmount := original.ConvertedAmount
	if reversalAmount.IsZero() {
		reversalAmount = original.Amount
	}
	if target.Balance.LessThan(reversalAmount) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: need %s %s, have %s", ErrInsufficientBalanceForReversal,
			reversalAmount.String(), target.Currency, target.Balance.String())
	}

	inverseRate := decimal.NewFromInt(1)
	if !original.ExchangeRate.IsZero() {
		inverseRate = decimal.NewFromInt(1).Div(original.ExchangeRate)
	}

	now := time.Now().UTC()
	originalID := original.TransactionID
	reversal := domain.Transaction{
		TransactionID:         utils.GenerateTransactionID(),
		SourceAccountID:       original.TargetAccountID,
		TargetAccountID:       original.SourceAccountID,
		SourceAccountName:     original.TargetAccountName,
		TargetAccountName:     original.SourceAccountName,
		Amount:                reversalAmount,
		SourceCurrency:        original.TargetCurrency,
		TargetCurrency:        original.SourceCurrency,
		ExchangeRate:          inverseRate,
		ConvertedAmount:       original.Amount,
		Fee:                   decimal.Zero,
		FeePercent:            decimal.Zero,
		Note:                  fmt.Sprintf("Reversal of transaction %s", originalID),
		Timestamp:             now,
		Status:                domain.StatusCompleted,
		Type:                  domain.TypeReversal,
		Reversible:            false,
		OriginalTransactionID: &originalID,
	}

	record := domain.ReversalRecord{
		OriginalTransactionID: originalID,
		ReversalTransactionID: reversal.TransactionID,
		Amount:                reversalAmount,
		Timestamp:             now,
		Reason:                reason,
	}

	// Apply deltas, append the reversal and record the idempotency marker as
	// one unit under the write lock.
	target.Balance = target.Balance.Sub(reversalAmount)
	source.Balance = source.Balance.Add(original.Amount)
	s.transactions = append([]domain.Transaction{reversal}, s.transactions...)
	s.reversals[originalID] = record

	s.mu.Unlock()

	s.LogInfo(ctx, "Transaction reversed",
		slog.String("original_transaction_id", originalID),
		slog.String("reversal_transaction_id", reversal.TransactionID),
		slog.String("amount", reversalAmount.String()))

	s.persistTransaction(ctx, reversal)
	s.persistReversal(ctx, record)

	return &reversal, nil
}

// IsReversed reports whether a reversal record exists for the transaction id.
func (s *LedgerService) IsReversed(ctx context.Context, transactionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reversals[transactionID]
	return ok
}

// GetTransaction retrieves a single transaction by id.
func (s *LedgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn := s.findTransactionLocked(transactionID)
	if txn == nil {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}
	copied := *txn
	return &copied, nil
}

// ListTransactions returns the filtered transaction log, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, filter dto.TransactionFilter) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, txn := range s.transactions {
		if filter.AccountID != nil &&
			txn.SourceAccountID != *filter.AccountID && txn.TargetAccountID != *filter.AccountID {
			continue
		}
		if filter.Currency != nil &&
			txn.SourceCurrency != *filter.Currency && txn.TargetCurrency != *filter.Currency {
			continue
		}
		if filter.Status != nil && txn.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && txn.Type != *filter.Type {
			continue
		}
		result = append(result, txn)
	}
	return result
}

// ListAccounts returns copies of all accounts in their seed order.
func (s *LedgerService) ListAccounts(ctx context.Context) []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accountOrder))
	for _, id := range s.accountOrder {
		accounts = append(accounts, *s.accounts[id])
	}
	return accounts
}

// GetAccount retrieves a single account by id.
func (s *LedgerService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", ErrInvalidAccount, accountID)
	}
	copied := *acc
	return &copied, nil
}

// PersistFailures returns how many durable writes have failed since startup.
func (s *LedgerService) PersistFailures() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistFailures
}

// findTransactionLocked scans the log for a transaction id. Caller must hold
// at least the read lock.
func (s *LedgerService) findTransactionLocked(transactionID string) *domain.Transaction {
	for i := range s.transactions {
		if s.transactions[i].TransactionID == transactionID {
			return &s.transactions[i]
		}
	}
	return nil
}

// persistTransaction durably records a transaction best-effort. A failure is
// logged and counted but never rolls back the applied in-memory state; the
// design is at-most-eventually-durable, not two-phase commit.
func (s *LedgerService) persistTransaction(ctx context.Context, txn domain.Transaction) {
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		s.noteSaveFailure()
		s.LogError(ctx, err, "Failed to durably save transaction, in-memory state retained",
			slog.String("transaction_id", txn.TransactionID))
	}
}

func (s *LedgerService) persistReversal(ctx context.Context, record domain.ReversalRecord) {
	if err := s.store.SaveReversal(ctx, record); err != nil {
		s.noteSaveFailure()
		s.LogError(ctx, err, "Failed to durably save reversal record, in-memory state retained",
			slog.String("original_transaction_id", record.OriginalTransactionID))
	}
}

func (s *LedgerService) noteSaveFailure() {
	s.mu.Lock()
	s.persistFailures++
	s.mu.Unlock()
}
