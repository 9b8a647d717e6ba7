package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inasdev/portfolio-dashboard/internal/store"
)

// HoldingsHandler exposes the holdings editor boundary: read, save, reload,
// import and export of the column-oriented holdings document.
type HoldingsHandler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewHoldingsHandler creates a holdings handler.
func NewHoldingsHandler(st *store.Store, log zerolog.Logger) *HoldingsHandler {
	return &HoldingsHandler{
		store: st,
		log:   log.With().Str("handler", "holdings").Logger(),
	}
}

// Get handles GET /api/holdings and returns the current holdings document.
func (h *HoldingsHandler) Get(c echo.Context) error {
	doc, err := h.store.Document()
	if err != nil {
		h.log.Error().Err(err).Msg("Encoding holdings failed")
		return c.JSON(http.StatusInternalServerError, StatusResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to encode holdings: %v", err),
		})
	}
	return c.JSONBlob(http.StatusOK, doc)
}

// Save handles PUT /api/holdings: the editor's explicit save. The body is a
// holdings document; it replaces the current set and is written to disk.
func (h *HoldingsHandler) Save(c echo.Context) error {
	count, err := h.store.SaveFrom(c.Request().Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("Saving holdings failed")
		return c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to save holdings: %v", err),
		})
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("Saved %d holdings", count),
		Count:   count,
	})
}

// Reload handles POST /api/holdings/reload and re-reads the holdings file,
// discarding unsaved in-memory edits.
func (h *HoldingsHandler) Reload(c echo.Context) error {
	if err := h.store.Reload(); err != nil {
		h.log.Warn().Err(err).Msg("Reloading holdings failed")
		return c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to reload holdings: %v", err),
		})
	}
	count := len(h.store.Positions())
	return c.JSON(http.StatusOK, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("Reloaded %d holdings", count),
		Count:   count,
	})
}

// Import handles POST /api/holdings/import. A malformed upload is reported
// to the user and leaves the in-memory holdings untouched.
func (h *HoldingsHandler) Import(c echo.Context) error {
	positions, err := h.store.Import(c.Request().Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("Import rejected")
		return c.JSON(http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: fmt.Sprintf("Upload failed: %v", err),
		})
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Success: true,
		Message: fmt.Sprintf("Loaded %d holdings from uploaded file", len(positions)),
		Count:   len(positions),
	})
}

// Export handles GET /api/holdings/export and serves the sanitized document
// as a download.
func (h *HoldingsHandler) Export(c echo.Context) error {
	doc, err := h.store.Export()
	if err != nil {
		h.log.Error().Err(err).Msg("Export failed")
		return c.JSON(http.StatusInternalServerError, StatusResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to export holdings: %v", err),
		})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="holdings.json"`)
	return c.JSONBlob(http.StatusOK, doc)
}
