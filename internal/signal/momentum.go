package signal

import (
	"errors"
	"math"

	"github.com/xerk-dot/monero-trading-bot/internal/market"
)

// MomentumStrategy is a compact reference strategy: a fast/slow moving
// average cross with strength derived from the separation between the two
// averages. It exists so the trading loop and backtester have a signal
// source; production deployments are expected to plug in their own
// Strategy implementations.
type MomentumStrategy struct {
	fastPeriod int
	slowPeriod int
	threshold  float64
}

// NewMomentumStrategy creates a momentum strategy with the given MA periods.
func NewMomentumStrategy(fastPeriod, slowPeriod int) *MomentumStrategy {
	return &MomentumStrategy{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		threshold:  0.002, // 0.2% separation before a signal fires
	}
}

// GetName returns the name of the strategy
func (s *MomentumStrategy) GetName() string {
	return "Momentum"
}

// Generate produces a buy signal when the fast average is above the slow
// one by more than the threshold, a sell signal in the opposite case, and
// hold otherwise.
func (s *MomentumStrategy) Generate(series *market.Series) (Signal, error) {
	if series.Len() < s.slowPeriod {
		return Signal{}, errors.New("insufficient data for momentum signal")
	}

	fast := closeAverage(series, s.fastPeriod)
	slow := closeAverage(series, s.slowPeriod)
	if slow <= 0 {
		return Signal{Type: TypeHold}, nil
	}

	separation := (fast - slow) / slow
	latest := series.Bars()[series.Len()-1]

	sig := Signal{Type: TypeHold, Timestamp: latest.Timestamp}
	if separation > s.threshold {
		sig.Type = TypeBuy
	} else if separation < -s.threshold {
		sig.Type = TypeSell
	} else {
		return sig, nil
	}

	// Strength and confidence grow with separation, saturating at 5%
	magnitude := math.Min(math.Abs(separation)/0.05, 1.0)
	sig.Strength = magnitude
	sig.Confidence = 0.5 + magnitude/2

	return sig, nil
}

func closeAverage(series *market.Series, period int) float64 {
	bars := series.Tail(period)
	if len(bars) == 0 {
		return 0
	}

	sum := 0.0
	for _, bar := range bars {
		sum += bar.Close
	}
	return sum / float64(len(bars))
}
