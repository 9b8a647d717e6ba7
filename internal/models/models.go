package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one row of the user's holdings. Quantity and CostBasis default
// to zero when the stored value is missing or unparsable; a nil pointer is
// never used here because a holding without a quantity is still a holding.
type Position struct {
	Ticker    string          `json:"ticker"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostBasis decimal.Decimal `json:"cost_basis_aud"`
	Notes     string          `json:"notes"`
}

// Quote is a snapshot for one ticker as returned by the market-data gateway.
// Nil pointer fields mean the upstream did not provide a value, which is
// distinct from a zero price.
type Quote struct {
	Ticker    string           `json:"ticker"`
	Price     *decimal.Decimal `json:"price"`
	PrevClose *decimal.Decimal `json:"prev_close"`
	Open      *decimal.Decimal `json:"open"`
	Currency  string           `json:"currency"`
}

// Bar is one historical price bar. Close may be nil for bars the upstream
// reports without a close (partially formed or halted sessions).
type Bar struct {
	Time  time.Time        `json:"time"`
	Close *decimal.Decimal `json:"close"`
}

// EnrichedPosition is a Position joined with its Quote and augmented with
// derived valuation fields. Every derived field is nil whenever any of its
// operands is absent; absence propagates, it is never rounded down to zero.
type EnrichedPosition struct {
	Position
	Price     *decimal.Decimal `json:"price"`
	PrevClose *decimal.Decimal `json:"prev_close"`
	Open      *decimal.Decimal `json:"open"`
	Currency  string           `json:"currency"`

	PriceAUD         *decimal.Decimal `json:"price_aud"`
	MarketValueAUD   *decimal.Decimal `json:"market_value_aud"`
	CostValueAUD     *decimal.Decimal `json:"cost_value_aud"`
	UnrealisedPnLAUD *decimal.Decimal `json:"unrealised_pnl_aud"`
	IntradayPct      *decimal.Decimal `json:"intraday_pct"`
	HourPct          *decimal.Decimal `json:"hour_pct"`
}

// PortfolioSummary aggregates the enriched set. Positions with absent
// operands are excluded from each sum rather than counted as zero, so a
// holding with an unknown price never dilutes the weighted move totals.
type PortfolioSummary struct {
	TotalMarketValueAUD decimal.Decimal `json:"total_market_value_aud"`
	TotalCostAUD        decimal.Decimal `json:"total_cost_aud"`
	UnrealisedPnLAUD    decimal.Decimal `json:"unrealised_pnl_aud"`
	IntradayMoveAUD     decimal.Decimal `json:"intraday_move_aud"`
	HourMoveAUD         decimal.Decimal `json:"hour_move_aud"`
}
