package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

const (
	// DefaultBaseURL is the reference upstream quote API.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	defaultTimeout = 30 * time.Second
	rateLimit      = 4 // requests per second
	maxAttempts    = 3

	// Cache windows match the refresh cadence of the dashboard: snapshots
	// turn over fastest, bar history slowest.
	snapshotTTL = 60 * time.Second
	barsTTL     = 5 * time.Minute
	fxTTL       = 2 * time.Minute

	fxPair = "AUDUSD=X"
)

// fallbackFXRate is the AUD/USD rate assumed when the upstream cannot be
// reached. Stale but bounded beats an aborted valuation pass.
var fallbackFXRate = decimal.NewFromFloat(0.67)

// Client is a rate-limited, caching client for the market-data API. Its
// read methods never return errors: any upstream failure degrades to absent
// data for the affected instrument so a valuation pass always completes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rateLimiter
	backoff    time.Duration
	log        zerolog.Logger

	snapshotCache *ttlCache[map[string]models.Quote]
	barsCache     *ttlCache[[]models.Bar]
	fxCache       *ttlCache[decimal.Decimal]
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	return &rateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
	}
}

func (r *rateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastCall)
	if elapsed < r.interval {
		time.Sleep(r.interval - elapsed)
	}
	r.lastCall = time.Now()
}

// NewClient creates a market-data client. An empty baseURL selects the
// reference upstream.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:       newRateLimiter(rateLimit),
		backoff:       time.Second,
		log:           log.With().Str("component", "quote_gateway").Logger(),
		snapshotCache: newTTLCache[map[string]models.Quote](),
		barsCache:     newTTLCache[[]models.Bar](),
		fxCache:       newTTLCache[decimal.Decimal](),
	}
}

// Snapshot returns the latest quote for every requested ticker. Tickers the
// upstream cannot resolve, and total upstream failure, both yield all-nil
// quotes; the result always has one entry per distinct requested ticker.
func (c *Client) Snapshot(ctx context.Context, tickers []string) map[string]models.Quote {
	if len(tickers) == 0 {
		return map[string]models.Quote{}
	}

	key := snapshotKey(tickers)
	result, err := c.snapshotCache.getOrFetch(key, snapshotTTL, func() (map[string]models.Quote, error) {
		return c.fetchSnapshot(ctx, tickers)
	})
	if err != nil {
		c.log.Warn().Err(err).Int("tickers", len(tickers)).Msg("Snapshot fetch failed, degrading to empty quotes")
		result = map[string]models.Quote{}
	}

	// Every requested ticker gets a row, resolved or not.
	out := make(map[string]models.Quote, len(tickers))
	for _, t := range tickers {
		if q, ok := result[t]; ok {
			out[t] = q
		} else {
			out[t] = models.Quote{Ticker: t}
		}
	}
	return out
}

// Bars returns the close-price bars for ticker between start and end at the
// given interval (e.g. "1h"). Any failure yields an empty slice.
func (c *Client) Bars(ctx context.Context, ticker, interval string, start, end time.Time) []models.Bar {
	key := fmt.Sprintf("%s|%s|%d|%d", ticker, interval, start.Unix(), end.Unix())
	bars, err := c.barsCache.getOrFetch(key, barsTTL, func() ([]models.Bar, error) {
		return c.fetchBars(ctx, ticker, interval, start, end)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Bar fetch failed, degrading to empty history")
		return nil
	}
	return bars
}

// FXRate returns the AUD/USD rate, falling back to a fixed constant when the
// upstream is unavailable. One call per valuation pass; the rate is applied
// uniformly to all USD positions.
func (c *Client) FXRate(ctx context.Context) decimal.Decimal {
	rate, err := c.fxCache.getOrFetch(fxPair, fxTTL, func() (decimal.Decimal, error) {
		return c.fetchFXRate(ctx)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("pair", fxPair).Stringer("fallback", fallbackFXRate).Msg("FX fetch failed, using fallback rate")
		return fallbackFXRate
	}
	return rate
}

func (c *Client) fetchSnapshot(ctx context.Context, tickers []string) (map[string]models.Quote, error) {
	u, err := url.Parse(c.baseURL + "/v7/finance/quote")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("symbols", strings.Join(tickers, ","))
	u.RawQuery = q.Encode()

	var resp quoteResponse
	if err := c.get(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("upstream error: %s", resp.QuoteResponse.Error.Description)
	}

	return parseSnapshot(&resp), nil
}

func (c *Client) fetchBars(ctx context.Context, ticker, interval string, start, end time.Time) ([]models.Bar, error) {
	u, err := url.Parse(c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("interval", interval)
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	u.RawQuery = q.Encode()

	var resp chartResponse
	if err := c.get(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("upstream error: %s", resp.Chart.Error.Description)
	}

	return parseBars(&resp), nil
}

func (c *Client) fetchFXRate(ctx context.Context) (decimal.Decimal, error) {
	u, err := url.Parse(c.baseURL + "/v8/finance/chart/" + url.PathEscape(fxPair))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("range", "1d")
	q.Set("interval", "5m")
	u.RawQuery = q.Encode()

	var resp chartResponse
	if err := c.get(ctx, u.String(), &resp); err != nil {
		return decimal.Zero, err
	}
	if resp.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("upstream error: %s", resp.Chart.Error.Description)
	}

	// Last bar of the day that actually has a close.
	bars := parseBars(&resp)
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Close != nil && !bars[i].Close.IsZero() {
			return *bars[i].Close, nil
		}
	}
	return decimal.Zero, fmt.Errorf("no usable close in %s history", fxPair)
}

// get performs a rate-limited GET with retries and decodes the JSON body
// into dest.
func (c *Client) get(ctx context.Context, urlStr string, dest any) error {
	c.limiter.Wait()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * c.backoff
			c.log.Debug().Int("attempt", attempt).Dur("backoff", backoff).Msg("Retrying request")
			time.Sleep(backoff)
		}

		lastErr = c.doRequest(ctx, urlStr, dest)
		if lastErr == nil {
			return nil
		}

		// Don't retry on context cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("all retries failed: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, urlStr string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "portfolio-dashboard/1.0")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// snapshotKey builds a cache key that is stable under ticker ordering.
func snapshotKey(tickers []string) string {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
