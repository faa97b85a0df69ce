package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkilifi/treasury-ledger/internal/apperrors"
	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portsrepo "github.com/mkilifi/treasury-ledger/internal/core/ports/repositories"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// PgxTransactionStore is the durable persistence adapter backed by PostgreSQL.
type PgxTransactionStore struct {
	BaseRepository
}

// NewPgxTransactionStore creates a new store for transaction and reversal data.
func NewPgxTransactionStore(pool *pgxpool.Pool) *PgxTransactionStore {
	return &PgxTransactionStore{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxTransactionStore implements portsrepo.TransactionStore
var _ portsrepo.TransactionStore = (*PgxTransactionStore)(nil)

// SaveTransaction inserts a transaction record.
func (r *PgxTransactionStore) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			transaction_id, source_account_id, target_account_id,
			source_account_name, target_account_name,
			amount, source_currency, target_currency,
			exchange_rate, converted_amount, fee, fee_percent,
			note, created_at, scheduled_date, status, type,
			reversible, original_transaction_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := r.Pool.Exec(ctx, query,
		txn.TransactionID,
		txn.SourceAccountID,
		txn.TargetAccountID,
		txn.SourceAccountName,
		txn.TargetAccountName,
		txn.Amount,
		string(txn.SourceCurrency),
		string(txn.TargetCurrency),
		txn.ExchangeRate,
		txn.ConvertedAmount,
		txn.Fee,
		txn.FeePercent,
		txn.Note,
		txn.Timestamp,
		txn.ScheduledDate,
		string(txn.Status),
		string(txn.Type),
		txn.Reversible,
		txn.OriginalTransactionID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: transaction %s already stored", apperrors.ErrConflict, txn.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// SaveReversal inserts a reversal record. The unique index on
// original_transaction_id enforces at-most-once reversal durably.
func (r *PgxTransactionStore) SaveReversal(ctx context.Context, record domain.ReversalRecord) error {
	query := `
		INSERT INTO reversals (original_transaction_id, reversal_transaction_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query,
		record.OriginalTransactionID,
		record.ReversalTransactionID,
		record.Amount,
		record.Reason,
		record.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: reversal already recorded for transaction %s",
				apperrors.ErrConflict, record.OriginalTransactionID)
		}
		return fmt.Errorf("failed to insert reversal for transaction %s: %w", record.OriginalTransactionID, err)
	}
	return nil
}

// LoadTransactions retrieves the full transaction log, newest first.
func (r *PgxTransactionStore) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `
		SELECT transaction_id, source_account_id, target_account_id,
		       source_account_name, target_account_name,
		       amount, source_currency, target_currency,
		       exchange_rate, converted_amount, fee, fee_percent,
		       note, created_at, scheduled_date, status, type,
		       reversible, original_transaction_id
		FROM transactions
		ORDER BY created_at DESC, transaction_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var sourceCurrency, targetCurrency, status, txnType string
		err := rows.Scan(
			&txn.TransactionID,
			&txn.SourceAccountID,
			&txn.TargetAccountID,
			&txn.SourceAccountName,
			&txn.TargetAccountName,
			&txn.Amount,
			&sourceCurrency,
			&targetCurrency,
			&txn.ExchangeRate,
			&txn.ConvertedAmount,
			&txn.Fee,
			&txn.FeePercent,
			&txn.Note,
			&txn.Timestamp,
			&txn.ScheduledDate,
			&status,
			&txnType,
			&txn.Reversible,
			&txn.OriginalTransactionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txn.SourceCurrency = domain.Currency(sourceCurrency)
		txn.TargetCurrency = domain.Currency(targetCurrency)
		txn.Status = domain.TransactionStatus(status)
		txn.Type = domain.TransactionType(txnType)
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// LoadReversals retrieves all reversal records.
func (r *PgxTransactionStore) LoadReversals(ctx context.Context) ([]domain.ReversalRecord, error) {
	query := `
		SELECT original_transaction_id, reversal_transaction_id, amount, reason, created_at
		FROM reversals;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reversals: %w", err)
	}
	defer rows.Close()

	var records []domain.ReversalRecord
	for rows.Next() {
		var rec domain.ReversalRecord
		err := rows.Scan(
			&rec.OriginalTransactionID,
			&rec.ReversalTransactionID,
			&rec.Amount,
			&rec.Reason,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reversal row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating reversal rows: %w", err)
	}
	return records, nil
}

// IsTransactionReversed reports whether a reversal record exists for the id.
func (r *PgxTransactionStore) IsTransactionReversed(ctx context.Context, transactionID string) (bool, error) {
	query := `SELECT 1 FROM reversals WHERE original_transaction_id = $1;`

	var one int
	err := r.Pool.QueryRow(ctx, query, transactionID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check reversal for transaction %s: %w", transactionID, err)
	}
	return true, nil
}
