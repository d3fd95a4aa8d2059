package indicators

import (
	"errors"
	"math"

	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

// ATR computes the Average True Range, a volatility measure derived from
// recent high/low/close bars, using Wilder's smoothing.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// GetName returns the indicator name
func (a *ATR) GetName() string {
	return "ATR"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (a *ATR) GetRequiredPeriods() int {
	return a.period + 1 // Need extra period for True Range calculation
}

// Calculate returns the latest ATR value for the data.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	values, err := a.Values(data)
	if err != nil {
		return 0, err
	}
	return values[len(values)-1], nil
}

// Values returns the full per-bar ATR series for the data. The first
// period bars carry the warm-up average.
func (a *ATR) Values(data []types.OHLCV) ([]float64, error) {
	if len(data) < a.GetRequiredPeriods() {
		return nil, errors.New("insufficient data points for ATR calculation")
	}

	trueRanges := make([]float64, len(data))
	trueRanges[0] = data[0].High - data[0].Low
	for i := 1; i < len(data); i++ {
		trueRanges[i] = trueRange(data[i], data[i-1].Close)
	}

	values := make([]float64, len(data))

	// Seed with a simple average of the first period true ranges
	seed := 0.0
	for i := 0; i < a.period; i++ {
		seed += trueRanges[i]
	}
	seed /= float64(a.period)
	for i := 0; i < a.period; i++ {
		values[i] = seed
	}

	// Wilder's smoothing for the remainder
	for i := a.period; i < len(data); i++ {
		values[i] = (values[i-1]*float64(a.period-1) + trueRanges[i]) / float64(a.period)
	}

	return values, nil
}

// trueRange is max(High-Low, |High-PrevClose|, |Low-PrevClose|).
func trueRange(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)

	return math.Max(hl, math.Max(hc, lc))
}
