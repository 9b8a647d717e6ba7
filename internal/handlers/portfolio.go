package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inasdev/portfolio-dashboard/internal/models"
	"github.com/inasdev/portfolio-dashboard/internal/store"
	"github.com/inasdev/portfolio-dashboard/internal/valuation"
)

// PortfolioHandler serves the computed dashboard data: the enriched position
// table, the summary metrics and per-ticker price history.
type PortfolioHandler struct {
	store *store.Store
	svc   *valuation.Service
	log   zerolog.Logger
}

// NewPortfolioHandler creates a portfolio handler.
func NewPortfolioHandler(st *store.Store, svc *valuation.Service, log zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		store: st,
		svc:   svc,
		log:   log.With().Str("handler", "portfolio").Logger(),
	}
}

// PortfolioResponse is the payload of GET /api/portfolio.
type PortfolioResponse struct {
	Positions []models.EnrichedPosition `json:"positions"`
	Summary   models.PortfolioSummary   `json:"summary"`
	AsOf      time.Time                 `json:"as_of"`
}

// Portfolio handles GET /api/portfolio: one full valuation pass over the
// current holdings. Upstream failures surface as null fields, never as a
// failed request.
func (h *PortfolioHandler) Portfolio(c echo.Context) error {
	ctx := c.Request().Context()

	positions, summary := h.svc.Valuate(ctx, h.store.Positions())

	return c.JSON(http.StatusOK, PortfolioResponse{
		Positions: positions,
		Summary:   summary,
		AsOf:      time.Now(),
	})
}

// HistoryResponse is the payload of GET /api/history/:ticker.
type HistoryResponse struct {
	Ticker string       `json:"ticker"`
	Bars   []models.Bar `json:"bars"`
}

// History handles GET /api/history/:ticker and returns the last day of
// hourly closes for one ticker. An unknown or failing ticker yields an
// empty series.
func (h *PortfolioHandler) History(c echo.Context) error {
	ctx := c.Request().Context()
	ticker := c.Param("ticker")
	if ticker == "" {
		return c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: "ticker path parameter is required",
		})
	}

	bars := h.svc.History(ctx, ticker)
	return c.JSON(http.StatusOK, HistoryResponse{
		Ticker: ticker,
		Bars:   bars,
	})
}
