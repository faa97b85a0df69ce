package services

import (
	"context"
	"log/slog"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
	"github.com/mkilifi/treasury-ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// reportingService implements read-only statistics over the ledger.
type reportingService struct {
	BaseService
	ledger portssvc.LedgerReaderSvc
}

// NewReportingService creates a reporting service backed by the ledger engine.
func NewReportingService(ledger portssvc.LedgerReaderSvc) portssvc.ReportingSvc {
	return &reportingService{ledger: ledger}
}

// Ensure reportingService implements the ReportingSvc interface
var _ portssvc.ReportingSvc = (*reportingService)(nil)

// TreasurySummary aggregates per-currency balances, completed transfer volume
// and fee takings, plus transaction counts by status and type.
func (s *reportingService) TreasurySummary(ctx context.Context) (*dto.TreasurySummary, error) {
	accounts := s.ledger.ListAccounts(ctx)
	transactions := s.ledger.ListTransactions(ctx, dto.TransactionFilter{})

	byCurrency := make(map[domain.Currency]*dto.CurrencyTotals)
	totalsFor := func(c domain.Currency) *dto.CurrencyTotals {
		t, ok := byCurrency[c]
		if !ok {
			t = &dto.CurrencyTotals{
				Currency:      c,
				TotalBalance:  decimal.Zero,
				Volume:        decimal.Zero,
				FeesCollected: decimal.Zero,
			}
			byCurrency[c] = t
		}
		return t
	}

	for _, acc := range accounts {
		t := totalsFor(acc.Currency)
		t.TotalBalance = t.TotalBalance.Add(acc.Balance)
		t.AccountCount++
	}

	summary := &dto.TreasurySummary{TransactionCount: len(transactions)}
	for _, txn := range transactions {
		switch txn.Status {
		case domain.StatusCompleted:
			summary.CompletedCount++
		case domain.StatusScheduled:
			summary.ScheduledCount++
		}
		if txn.Type == domain.TypeReversal {
			summary.ReversalCount++
			continue
		}
		if txn.Status != domain.StatusCompleted {
			continue
		}
		t := totalsFor(txn.SourceCurrency)
		t.Volume = t.Volume.Add(txn.Amount)
		t.FeesCollected = t.FeesCollected.Add(txn.Fee)
	}

	// Stable ordering: the supported currency set defines the report order.
	for _, info := range domain.SupportedCurrencies {
		if t, ok := byCurrency[info.Code]; ok {
			summary.Totals = append(summary.Totals, *t)
		}
	}

	s.LogDebug(ctx, "Treasury summary generated",
		slog.Int("transaction_count", summary.TransactionCount),
		slog.Int("currency_count", len(summary.Totals)))
	return summary, nil
}
