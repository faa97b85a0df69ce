package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReversalRecord is the authoritative idempotency marker proving a given
// transaction id has been reversed. At most one record may exist per
// original transaction id, independent of scanning the transaction log.
type ReversalRecord struct {
	OriginalTransactionID string          `json:"originalTransactionId"`
	ReversalTransactionID string          `json:"reversalTransactionId"`
	Amount                decimal.Decimal `json:"amount"`
	Timestamp             time.Time       `json:"timestamp"`
	Reason                string          `json:"reason"`
}
