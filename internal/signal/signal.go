package signal

import (
	"time"

	"github.com/xerk-dot/monero-trading-bot/internal/market"
)

// Type classifies a trading signal.
type Type string

const (
	TypeBuy  Type = "buy"
	TypeSell Type = "sell"
	TypeHold Type = "hold"
)

// Signal is an externally produced trading signal. The risk engine consumes
// it as an opaque value and never mutates it.
type Signal struct {
	Type       Type
	Strength   float64 // [0, 1]
	Confidence float64 // [0, 1]
	Timestamp  time.Time
}

// Strategy produces signals from market history.
type Strategy interface {
	// Generate analyzes the series and returns a trading signal
	Generate(series *market.Series) (Signal, error)

	// GetName returns the name of the strategy
	GetName() string
}
