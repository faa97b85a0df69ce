package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mkilifi/treasury-ledger/internal/core/domain"
	portssvc "github.com/mkilifi/treasury-ledger/internal/core/ports/services"
	"github.com/mkilifi/treasury-ledger/internal/middleware"
	"github.com/shopspring/decimal"
)

// FxRateService supplies conversion rates for the supported currency pairs.
// It starts from a fixed seed table and optionally refreshes USD quotes from
// live APIs; non-USD cross rates are derived from the same instantaneous USD
// quotes (base-currency triangulation). Because quotes refresh independently
// of each other over time, rate(A,B)*rate(B,A) is only approximately 1 —
// accepted drift, not corrected.
type FxRateService struct {
	mu          sync.RWMutex
	rates       map[domain.Currency]map[domain.Currency]decimal.Decimal
	lastUpdate  time.Time
	cacheExpiry time.Duration

	client      *http.Client
	primaryURL  string
	fallbackURL string
}

// Ensure FxRateService implements the portssvc.RateProvider interface
var _ portssvc.RateProvider = (*FxRateService)(nil)

// FxRateOption configures an FxRateService.
type FxRateOption func(*FxRateService)

// WithFxEndpoints sets the primary and fallback live rate API base URLs.
func WithFxEndpoints(primary, fallback string) FxRateOption {
	return func(s *FxRateService) {
		s.primaryURL = primary
		s.fallbackURL = fallback
	}
}

// WithFxCacheExpiry sets how long a live fetch is considered fresh.
func WithFxCacheExpiry(d time.Duration) FxRateOption {
	return func(s *FxRateService) {
		s.cacheExpiry = d
	}
}

// WithFxHTTPClient sets the HTTP client used for live fetches.
func WithFxHTTPClient(c *http.Client) FxRateOption {
	return func(s *FxRateService) {
		s.client = c
	}
}

// NewFxRateService creates a rate provider seeded with the fixed rate table.
func NewFxRateService(options ...FxRateOption) *FxRateService {
	s := &FxRateService{
		rates:       seedRates(),
		cacheExpiry: 5 * time.Minute,
		client:      &http.Client{Timeout: 10 * time.Second},
		primaryURL:  "https://api.exchangerate-api.com/v4/latest",
		fallbackURL: "https://api.fxratesapi.com/latest",
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// seedRates is the fallback table used until (and whenever) live lookup is
// unavailable. Values are point-in-time market quotes for the demo set.
func seedRates() map[domain.Currency]map[domain.Currency]decimal.Decimal {
	one := decimal.NewFromInt(1)
	return map[domain.Currency]map[domain.Currency]decimal.Decimal{
		domain.USD: {
			domain.KES: decimal.NewFromFloat(150.25),
			domain.NGN: decimal.NewFromFloat(1547.80),
			domain.USD: one,
		},
		domain.KES: {
			domain.USD: decimal.NewFromFloat(0.00665),
			domain.NGN: decimal.NewFromFloat(10.30),
			domain.KES: one,
		},
		domain.NGN: {
			domain.USD: decimal.NewFromFloat(0.000646),
			domain.KES: decimal.NewFromFloat(0.097),
			domain.NGN: one,
		},
	}
}

// Rate returns the current conversion rate between two currencies. Unknown
// pairs fall back to 1 so a conversion never aborts an operation.
func (s *FxRateService) Rate(from, to domain.Currency) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes, ok := s.rates[from]
	if !ok {
		return decimal.NewFromInt(1)
	}
	rate, ok := quotes[to]
	if !ok {
		return decimal.NewFromInt(1)
	}
	return rate
}

// RateWithSpread returns the base rate with a trading spread added on top.
func (s *FxRateService) RateWithSpread(from, to domain.Currency, spreadPercent decimal.Decimal) decimal.Decimal {
	baseRate := s.Rate(from, to)
	spread := baseRate.Mul(spreadPercent).Div(oneHundred)
	return baseRate.Add(spread)
}

// IsLive reports whether the current table comes from a recent live fetch.
func (s *FxRateService) IsLive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.lastUpdate.IsZero() && time.Since(s.lastUpdate) < s.cacheExpiry
}

// LastUpdate returns the instant of the last successful live refresh.
func (s *FxRateService) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// NeedsUpdate reports whether the cached rates have gone stale.
func (s *FxRateService) NeedsUpdate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate.IsZero() || time.Since(s.lastUpdate) > s.cacheExpiry
}

// AllRates returns a snapshot copy of the full rate table.
func (s *FxRateService) AllRates() (map[domain.Currency]map[domain.Currency]decimal.Decimal, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[domain.Currency]map[domain.Currency]decimal.Decimal, len(s.rates))
	for from, quotes := range s.rates {
		row := make(map[domain.Currency]decimal.Decimal, len(quotes))
		for to, rate := range quotes {
			row[to] = rate
		}
		snapshot[from] = row
	}
	live := !s.lastUpdate.IsZero() && time.Since(s.lastUpdate) < s.cacheExpiry
	return snapshot, s.lastUpdate, live
}

// liveRatesPayload matches the JSON shape of both rate APIs.
type liveRatesPayload struct {
	Rates map[string]float64 `json:"rates"`
}

// RefreshLive fetches current USD quotes and rebuilds the cross-rate table.
// A failed refresh leaves the previous table untouched.
func (s *FxRateService) RefreshLive(ctx context.Context) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	payload, err := s.fetch(ctx, fmt.Sprintf("%s/USD", s.primaryURL))
	if err != nil {
		logger.Warn("Primary rate API failed, trying fallback", slog.String("error", err.Error()))
		payload, err = s.fetch(ctx, fmt.Sprintf("%s?base=USD&symbols=KES,NGN", s.fallbackURL))
		if err != nil {
			logger.Warn("Fallback rate API also failed, keeping current rates", slog.String("error", err.Error()))
			return fmt.Errorf("live rate refresh failed: %w", err)
		}
	}

	usdKES, okKES := payload.Rates[string(domain.KES)]
	usdNGN, okNGN := payload.Rates[string(domain.NGN)]

	s.mu.Lock()
	defer s.mu.Unlock()

	if okKES && usdKES > 0 {
		s.rates[domain.USD][domain.KES] = decimal.NewFromFloat(usdKES)
	}
	if okNGN && usdNGN > 0 {
		s.rates[domain.USD][domain.NGN] = decimal.NewFromFloat(usdNGN)
	}
	s.updateCrossRatesLocked()
	s.lastUpdate = time.Now()

	logger.Info("Live exchange rates updated",
		slog.String("usd_kes", s.rates[domain.USD][domain.KES].String()),
		slog.String("usd_ngn", s.rates[domain.USD][domain.NGN].String()))
	return nil
}

// updateCrossRatesLocked derives inverse and cross rates from the USD quotes
// currently in the table. Both legs of every cross rate use the same
// instantaneous USD snapshot. Caller must hold the write lock.
func (s *FxRateService) updateCrossRatesLocked() {
	one := decimal.NewFromInt(1)
	usdKES := s.rates[domain.USD][domain.KES]
	usdNGN := s.rates[domain.USD][domain.NGN]

	s.rates[domain.KES][domain.USD] = one.Div(usdKES)
	s.rates[domain.NGN][domain.USD] = one.Div(usdNGN)
	s.rates[domain.KES][domain.NGN] = usdNGN.Div(usdKES)
	s.rates[domain.NGN][domain.KES] = usdKES.Div(usdNGN)
}

func (s *FxRateService) fetch(ctx context.Context, url string) (*liveRatesPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var payload liveRatesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate payload: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate payload contained no rates")
	}
	return &payload, nil
}

// StartAutoUpdate refreshes rates immediately and then on the given interval
// until ctx is cancelled.
func (s *FxRateService) StartAutoUpdate(ctx context.Context, interval time.Duration) {
	go func() {
		_ = s.RefreshLive(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.RefreshLive(ctx)
			}
		}
	}()
}
