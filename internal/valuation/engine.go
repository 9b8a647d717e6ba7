package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// MergeQuotes left-joins positions with quotes by ticker. Every position
// produces exactly one row in the same order, with nil quote fields when no
// quote matched. Duplicate positions produce duplicate rows; the quote map
// can hold at most one quote per ticker by construction.
func MergeQuotes(positions []models.Position, quotes map[string]models.Quote) []models.EnrichedPosition {
	enriched := make([]models.EnrichedPosition, 0, len(positions))
	for _, p := range positions {
		ep := models.EnrichedPosition{Position: p}
		if q, ok := quotes[p.Ticker]; ok {
			ep.Price = q.Price
			ep.PrevClose = q.PrevClose
			ep.Open = q.Open
			ep.Currency = q.Currency
		}
		enriched = append(enriched, ep)
	}
	return enriched
}

// ConvertToAUD converts a quoted price into AUD. USD prices divide by the
// AUD/USD rate; every other currency code, including unknown and empty, is
// assumed to already be AUD and passes through unchanged. Only one foreign
// currency is modeled; this matches the behavior the dashboard has always
// had.
func ConvertToAUD(price *decimal.Decimal, currency string, fx decimal.Decimal) *decimal.Decimal {
	if price == nil {
		return nil
	}
	if currency != "USD" {
		p := *price
		return &p
	}
	if fx.IsZero() {
		return nil
	}
	converted := price.Div(fx)
	return &converted
}

// DeriveMetrics fills in the valuation fields of one enriched row. Cost
// value is always computable from the position alone; everything priced
// stays nil until a price is known, and intraday change additionally needs a
// non-zero previous close.
func DeriveMetrics(ep *models.EnrichedPosition) {
	cost := ep.CostBasis.Mul(ep.Quantity)
	ep.CostValueAUD = &cost

	if ep.PriceAUD != nil {
		mv := ep.PriceAUD.Mul(ep.Quantity)
		ep.MarketValueAUD = &mv
		pnl := mv.Sub(cost)
		ep.UnrealisedPnLAUD = &pnl
	}

	if ep.Price != nil && ep.PrevClose != nil && !ep.PrevClose.IsZero() {
		pct := ep.Price.Div(*ep.PrevClose).Sub(decimal.NewFromInt(1)).Mul(hundred)
		ep.IntradayPct = &pct
	}
}

// HourChange computes the percentage move between the two most recent bars.
// Fewer than two bars, a missing close on either, or a zero prior close all
// yield nil.
func HourChange(bars []models.Bar) *decimal.Decimal {
	if len(bars) < 2 {
		return nil
	}
	last := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	if last == nil || prev == nil || prev.IsZero() {
		return nil
	}
	pct := last.Div(*prev).Sub(decimal.NewFromInt(1)).Mul(hundred)
	return &pct
}

// Aggregate sums the enriched rows into portfolio totals. A row contributes
// to a sum only when the summed field is present: a position with an unknown
// price is excluded from the weighted move sums entirely rather than being
// credited with a zero move.
func Aggregate(enriched []models.EnrichedPosition) models.PortfolioSummary {
	var summary models.PortfolioSummary
	for _, ep := range enriched {
		if ep.MarketValueAUD != nil {
			summary.TotalMarketValueAUD = summary.TotalMarketValueAUD.Add(*ep.MarketValueAUD)
		}
		if ep.CostValueAUD != nil {
			summary.TotalCostAUD = summary.TotalCostAUD.Add(*ep.CostValueAUD)
		}
		if ep.MarketValueAUD != nil && ep.IntradayPct != nil {
			summary.IntradayMoveAUD = summary.IntradayMoveAUD.Add(ep.MarketValueAUD.Mul(*ep.IntradayPct).Div(hundred))
		}
		if ep.MarketValueAUD != nil && ep.HourPct != nil {
			summary.HourMoveAUD = summary.HourMoveAUD.Add(ep.MarketValueAUD.Mul(*ep.HourPct).Div(hundred))
		}
	}
	summary.UnrealisedPnLAUD = summary.TotalMarketValueAUD.Sub(summary.TotalCostAUD)
	return summary
}
