package valuation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

const (
	hourWindow    = 6 * time.Hour
	historyWindow = 24 * time.Hour
	barInterval   = "1h"
)

// Gateway is the market-data dependency of the valuation pass. All methods
// degrade instead of erroring: a missing quote is an all-nil Quote, missing
// history is an empty slice, and the FX rate falls back to a constant.
type Gateway interface {
	Snapshot(ctx context.Context, tickers []string) map[string]models.Quote
	Bars(ctx context.Context, ticker, interval string, start, end time.Time) []models.Bar
	FXRate(ctx context.Context) decimal.Decimal
}

// Service runs one synchronous valuation pass per request over an immutable
// snapshot of the holdings.
type Service struct {
	gateway Gateway
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a valuation service on top of the given gateway.
func NewService(gateway Gateway, log zerolog.Logger) *Service {
	return &Service{
		gateway: gateway,
		now:     time.Now,
		log:     log.With().Str("component", "valuation").Logger(),
	}
}

// Valuate merges the positions with freshly fetched quotes, converts prices
// to AUD with a single FX rate for the whole pass, derives per-position
// metrics and aggregates the totals. No single instrument failure aborts the
// pass; affected fields simply stay absent.
func (s *Service) Valuate(ctx context.Context, positions []models.Position) ([]models.EnrichedPosition, models.PortfolioSummary) {
	start := s.now()

	quotes := s.gateway.Snapshot(ctx, fetchableTickers(positions))
	fx := s.gateway.FXRate(ctx)

	enriched := MergeQuotes(positions, quotes)
	for i := range enriched {
		enriched[i].PriceAUD = ConvertToAUD(enriched[i].Price, enriched[i].Currency, fx)
		DeriveMetrics(&enriched[i])
	}

	s.fillHourlyChange(ctx, enriched)

	summary := Aggregate(enriched)

	s.log.Info().
		Int("positions", len(enriched)).
		Stringer("fx_aud_usd", fx).
		Stringer("total_value_aud", summary.TotalMarketValueAUD).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Valuation pass complete")

	return enriched, summary
}

// fillHourlyChange fetches a short bar window per ticker and derives the
// last-hour move. Fetches are independent, so they run concurrently; each
// goroutine owns exactly one result slot. All fetches complete (or degrade)
// before the caller aggregates.
func (s *Service) fillHourlyChange(ctx context.Context, enriched []models.EnrichedPosition) {
	end := s.now()
	begin := end.Add(-hourWindow)

	var wg sync.WaitGroup
	for i := range enriched {
		ticker := enriched[i].Ticker
		if strings.TrimSpace(ticker) == "" {
			continue
		}
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			bars := s.gateway.Bars(ctx, ticker, barInterval, begin, end)
			enriched[i].HourPct = HourChange(bars)
		}(i, ticker)
	}
	wg.Wait()
}

// History returns the last day of hourly closes for one ticker, with gap
// bars removed. This is the raw series behind the per-ticker chart; the
// charting itself lives on the other side of the API.
func (s *Service) History(ctx context.Context, ticker string) []models.Bar {
	end := s.now()
	bars := s.gateway.Bars(ctx, ticker, barInterval, end.Add(-historyWindow), end)

	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Close != nil {
			out = append(out, b)
		}
	}
	return out
}

// fetchableTickers collects the distinct non-blank tickers, preserving first
// occurrence order.
func fetchableTickers(positions []models.Position) []string {
	seen := make(map[string]bool, len(positions))
	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		t := strings.TrimSpace(p.Ticker)
		if t == "" || seen[p.Ticker] {
			continue
		}
		seen[p.Ticker] = true
		tickers = append(tickers, p.Ticker)
	}
	return tickers
}
