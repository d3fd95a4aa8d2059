package data

import (
	"fmt"
	"time"

	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

// Provider loads historical market data from some source.
type Provider interface {
	// LoadData loads historical data from the specified source
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData validates the integrity of the loaded data
	ValidateData(data []types.OHLCV) error

	// GetName returns the name of the data provider
	GetName() string
}

// ValidateSeries runs the shared integrity checks every provider applies:
// chronological order, positive prices, and high/low consistency.
func ValidateSeries(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data points loaded")
	}

	var prev time.Time
	for i, bar := range data {
		if i > 0 && !bar.Timestamp.After(prev) {
			return fmt.Errorf("data out of order at index %d (%s not after %s)",
				i, bar.Timestamp.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		prev = bar.Timestamp

		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return fmt.Errorf("non-positive price at index %d", i)
		}
		if bar.High < bar.Low {
			return fmt.Errorf("high %.4f below low %.4f at index %d", bar.High, bar.Low, i)
		}
	}

	return nil
}
