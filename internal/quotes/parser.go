package quotes

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

// parseSnapshot converts a snapshot response into domain quotes keyed by
// symbol. Rows without a symbol are dropped; missing numeric fields stay nil.
func parseSnapshot(resp *quoteResponse) map[string]models.Quote {
	out := make(map[string]models.Quote, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		if r.Symbol == "" {
			continue
		}
		out[r.Symbol] = models.Quote{
			Ticker:    r.Symbol,
			Price:     decimalFromFloat(r.MarketPrice),
			PrevClose: decimalFromFloat(r.PreviousClose),
			Open:      decimalFromFloat(r.MarketOpen),
			Currency:  r.Currency,
		}
	}
	return out
}

// parseBars converts a chart response into ordered bars. Timestamps without
// a corresponding close entry produce a bar with a nil close, preserving the
// gap rather than inventing a price.
func parseBars(resp *chartResponse) []models.Bar {
	if len(resp.Chart.Result) == 0 {
		return nil
	}
	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		var c *float64
		if i < len(closes) {
			c = closes[i]
		}
		bars = append(bars, models.Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Close: decimalFromFloat(c),
		})
	}
	return bars
}

// decimalFromFloat converts an optional upstream float to a decimal,
// treating non-finite values as absent.
func decimalFromFloat(f *float64) *decimal.Decimal {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
