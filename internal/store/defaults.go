package store

import "github.com/inasdev/portfolio-dashboard/internal/models"

// defaultTickers is the starter watchlist used when no holdings file exists
// yet (or it cannot be read). Quantities and cost bases start at zero so the
// dashboard renders a quote-only view until the user fills them in.
var defaultTickers = []string{
	"NDQ.AX", "VGS.AX", "A200.AX", "FANG.AX",
	"CRYP.AX", "HACK.AX", "ROBO.AX",
	"GGUS.AX", "GEAR.AX",
	"ZIP.AX", "BNR.AX", "IVZ.AX",
	"BTC-USD", "ETH-USD",
	"EBTC.AX", "ETHT.AX",
}

// DefaultPositions returns the zero-quantity starter watchlist.
func DefaultPositions() []models.Position {
	positions := make([]models.Position, 0, len(defaultTickers))
	for _, t := range defaultTickers {
		positions = append(positions, models.Position{Ticker: t})
	}
	return positions
}
