package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/inasdev/portfolio-dashboard/internal/handlers"
	"github.com/inasdev/portfolio-dashboard/internal/quotes"
	"github.com/inasdev/portfolio-dashboard/internal/store"
	"github.com/inasdev/portfolio-dashboard/internal/valuation"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Load .env file if it exists (local dev)
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	holdingsPath := os.Getenv("HOLDINGS_PATH")
	if holdingsPath == "" {
		holdingsPath = "holdings.json"
	}

	holdingsStore := store.New(holdingsPath, log)
	client := quotes.NewClient(os.Getenv("QUOTES_BASE_URL"), log)
	svc := valuation.NewService(client, log)

	// Setup Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.Info().Int("status", v.Status).Str("uri", v.URI).Msg("request")
			} else {
				log.Error().Err(v.Error).Int("status", v.Status).Str("uri", v.URI).Msg("request")
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Setup handlers
	h := handlers.New()
	holdingsHandler := handlers.NewHoldingsHandler(holdingsStore, log)
	portfolioHandler := handlers.NewPortfolioHandler(holdingsStore, svc, log)

	// Routes
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/holdings", holdingsHandler.Get)
	api.PUT("/holdings", holdingsHandler.Save)
	api.POST("/holdings/reload", holdingsHandler.Reload)
	api.POST("/holdings/import", holdingsHandler.Import)
	api.GET("/holdings/export", holdingsHandler.Export)
	api.GET("/portfolio", portfolioHandler.Portfolio)
	api.GET("/history/:ticker", portfolioHandler.History)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Str("holdings", holdingsPath).Msg("Starting server")
	if err := e.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
