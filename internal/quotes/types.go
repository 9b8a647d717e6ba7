package quotes

// Wire types for the upstream market-data API. Numeric fields are pointers:
// the upstream omits fields it has no value for, and that absence has to
// survive into the domain model instead of collapsing to zero.

// quoteResponse is the envelope of the snapshot-quote endpoint.
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol        string   `json:"symbol"`
	Currency      string   `json:"currency"`
	MarketPrice   *float64 `json:"regularMarketPrice"`
	PreviousClose *float64 `json:"regularMarketPreviousClose"`
	MarketOpen    *float64 `json:"regularMarketOpen"`
}

// chartResponse is the envelope of the historical-bars endpoint. Bar data is
// column-oriented: one timestamp array plus one close array, aligned by
// index, with nulls for bars that have no close.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
