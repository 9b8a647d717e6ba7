package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

// stubGateway serves canned data and mirrors the degradation contract of the
// real gateway: every requested ticker gets a row, resolved or not.
type stubGateway struct {
	quotes map[string]models.Quote
	bars   map[string][]models.Bar
	fx     decimal.Decimal
}

func (g *stubGateway) Snapshot(_ context.Context, tickers []string) map[string]models.Quote {
	out := make(map[string]models.Quote, len(tickers))
	for _, t := range tickers {
		if q, ok := g.quotes[t]; ok {
			out[t] = q
		} else {
			out[t] = models.Quote{Ticker: t}
		}
	}
	return out
}

func (g *stubGateway) Bars(_ context.Context, ticker, _ string, _, _ time.Time) []models.Bar {
	return g.bars[ticker]
}

func (g *stubGateway) FXRate(_ context.Context) decimal.Decimal {
	return g.fx
}

func newTestService(g Gateway) *Service {
	return NewService(g, zerolog.Nop())
}

func TestValuatePass(t *testing.T) {
	gateway := &stubGateway{
		quotes: map[string]models.Quote{
			"AAA": {Ticker: "AAA", Price: decPtr("8"), PrevClose: decPtr("7.5"), Currency: "AUD"},
		},
		bars: map[string][]models.Bar{
			"AAA": {
				{Time: time.Now().Add(-2 * time.Hour), Close: decPtr("100")},
				{Time: time.Now().Add(-1 * time.Hour), Close: decPtr("110")},
			},
		},
		fx: dec("0.67"),
	}
	svc := newTestService(gateway)

	positions := []models.Position{
		{Ticker: "AAA", Quantity: dec("10"), CostBasis: dec("5")},
	}
	enriched, summary := svc.Valuate(context.Background(), positions)

	require.Len(t, enriched, 1)
	ep := enriched[0]
	require.NotNil(t, ep.PriceAUD)
	assert.True(t, ep.PriceAUD.Equal(dec("8")))
	require.NotNil(t, ep.MarketValueAUD)
	assert.True(t, ep.MarketValueAUD.Equal(dec("80")))
	require.NotNil(t, ep.UnrealisedPnLAUD)
	assert.True(t, ep.UnrealisedPnLAUD.Equal(dec("30")))
	require.NotNil(t, ep.IntradayPct)
	assert.InDelta(t, 6.667, ep.IntradayPct.InexactFloat64(), 0.001)
	require.NotNil(t, ep.HourPct)
	assert.True(t, ep.HourPct.Equal(dec("10")))

	assert.True(t, summary.TotalMarketValueAUD.Equal(dec("80")))
	assert.True(t, summary.TotalCostAUD.Equal(dec("50")))
	assert.True(t, summary.UnrealisedPnLAUD.Equal(dec("30")))
	// 80 * 10% = 8 AUD moved in the last hour
	assert.True(t, summary.HourMoveAUD.Equal(dec("8")))
}

func TestValuateConvertsUSD(t *testing.T) {
	gateway := &stubGateway{
		quotes: map[string]models.Quote{
			"BTC-USD": {Ticker: "BTC-USD", Price: decPtr("8"), Currency: "USD"},
		},
		fx: dec("0.5"),
	}
	svc := newTestService(gateway)

	enriched, _ := svc.Valuate(context.Background(), []models.Position{
		{Ticker: "BTC-USD", Quantity: dec("1")},
	})

	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].PriceAUD)
	assert.True(t, enriched[0].PriceAUD.Equal(dec("16")))
}

func TestValuateUnknownTickerDegrades(t *testing.T) {
	gateway := &stubGateway{
		quotes: map[string]models.Quote{
			"AAA": {Ticker: "AAA", Price: decPtr("8"), PrevClose: decPtr("7.5"), Currency: "AUD"},
		},
		fx: dec("0.67"),
	}
	svc := newTestService(gateway)

	positions := []models.Position{
		{Ticker: "AAA", Quantity: dec("10"), CostBasis: dec("5")},
		{Ticker: "ZZZ"}, // watch-only row the upstream cannot resolve
	}
	enriched, summary := svc.Valuate(context.Background(), positions)

	require.Len(t, enriched, 2, "no position is dropped by the join")
	zzz := enriched[1]
	assert.Nil(t, zzz.PriceAUD)
	assert.Nil(t, zzz.MarketValueAUD)
	assert.Nil(t, zzz.UnrealisedPnLAUD)
	assert.Nil(t, zzz.IntradayPct)
	assert.Nil(t, zzz.HourPct)

	withoutZZZ, summaryWithout := svc.Valuate(context.Background(), positions[:1])
	require.Len(t, withoutZZZ, 1)
	assert.True(t, summary.TotalMarketValueAUD.Equal(summaryWithout.TotalMarketValueAUD))
	assert.True(t, summary.UnrealisedPnLAUD.Equal(summaryWithout.UnrealisedPnLAUD))
	assert.True(t, summary.IntradayMoveAUD.Equal(summaryWithout.IntradayMoveAUD))
}

func TestValuateManyTickersConcurrently(t *testing.T) {
	// Hourly windows are fetched per ticker on separate goroutines; each one
	// must land in its own row.
	gateway := &stubGateway{
		quotes: map[string]models.Quote{},
		bars:   map[string][]models.Bar{},
		fx:     dec("0.67"),
	}
	var positions []models.Position
	for i, tk := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		last := decimal.NewFromInt(int64(100 + i + 1))
		gateway.quotes[tk] = models.Quote{Ticker: tk, Price: decPtr("10"), Currency: "AUD"}
		gateway.bars[tk] = []models.Bar{
			{Time: time.Now().Add(-2 * time.Hour), Close: decPtr("100")},
			{Time: time.Now().Add(-1 * time.Hour), Close: &last},
		}
		positions = append(positions, models.Position{Ticker: tk, Quantity: dec("1")})
	}

	svc := newTestService(gateway)
	enriched, _ := svc.Valuate(context.Background(), positions)

	require.Len(t, enriched, len(positions))
	for i := range enriched {
		require.NotNil(t, enriched[i].HourPct, "ticker %s", enriched[i].Ticker)
		expected := decimal.NewFromInt(int64(i + 1)) // (100+i+1)/100 - 1 in percent
		assert.True(t, enriched[i].HourPct.Equal(expected), "ticker %s: got %s", enriched[i].Ticker, enriched[i].HourPct)
	}
}

func TestHistoryDropsGapBars(t *testing.T) {
	gateway := &stubGateway{
		bars: map[string][]models.Bar{
			"AAA": {
				{Time: time.Now().Add(-3 * time.Hour), Close: decPtr("1")},
				{Time: time.Now().Add(-2 * time.Hour), Close: nil},
				{Time: time.Now().Add(-1 * time.Hour), Close: decPtr("2")},
			},
		},
		fx: dec("0.67"),
	}
	svc := newTestService(gateway)

	bars := svc.History(context.Background(), "AAA")
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Close.Equal(dec("1")))
	assert.True(t, bars[1].Close.Equal(dec("2")))

	assert.Empty(t, svc.History(context.Background(), "ZZZ"))
}
