package risk

import (
	"math"

	"github.com/xerk-dot/monero-trading-bot/internal/market"
	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

// StopLossMethod selects how a protective stop price is derived.
type StopLossMethod int

const (
	StopLossATR StopLossMethod = iota
	StopLossPercentage
	StopLossSupportResistance
	StopLossVolatility
)

// TakeProfitMethod selects how a profit target price is derived.
type TakeProfitMethod int

const (
	TakeProfitRiskReward TakeProfitMethod = iota
	TakeProfitResistanceSupport
	TakeProfitATR
)

const (
	defaultStopPercentage = 0.02
	stopLookback          = 50
	targetLookback        = 100
	levelBuffer           = 0.002
	volatilityWindow      = 20
	fallbackTargetPct     = 0.03
)

// StopLossCalculator derives protective stop prices from price history.
// Every method degrades to a simpler one on missing data instead of failing:
// the engine must always produce some valid stop.
type StopLossCalculator struct {
	atrMultiplier      float64
	minStopDistance    float64
	maxStopDistance    float64
	trailingTriggerPct float64
	trailingPct        float64
}

// NewStopLossCalculator creates a stop-loss calculator from the risk config.
func NewStopLossCalculator(cfg Config) *StopLossCalculator {
	return &StopLossCalculator{
		atrMultiplier:      cfg.DefaultATRMultiplier,
		minStopDistance:    cfg.MinStopDistancePct,
		maxStopDistance:    cfg.MaxStopDistancePct,
		trailingTriggerPct: cfg.TrailingStopTriggerPct,
		trailingPct:        cfg.TrailingStopPct,
	}
}

// CalculateStopLoss computes a stop-loss price for an entry at entryPrice.
// entryPrice must be positive; validating that is the caller's job.
func (c *StopLossCalculator) CalculateStopLoss(entryPrice float64, series *market.Series, side Side, method StopLossMethod) float64 {
	switch method {
	case StopLossPercentage:
		return c.percentageStop(entryPrice, side, defaultStopPercentage)
	case StopLossSupportResistance:
		return c.supportResistanceStop(entryPrice, series, side)
	case StopLossVolatility:
		return c.volatilityStop(entryPrice, series, side)
	default:
		return c.atrStop(entryPrice, series, side)
	}
}

// atrStop places the stop an ATR multiple away from entry, clamped to the
// configured distance bounds. Falls back to a percentage stop without ATR.
func (c *StopLossCalculator) atrStop(entryPrice float64, series *market.Series, side Side) float64 {
	atr, ok := series.LatestATR()
	if !ok {
		return c.percentageStop(entryPrice, side, defaultStopPercentage)
	}

	distance := c.clampDistance(entryPrice, atr*c.atrMultiplier)
	return applyStopDistance(entryPrice, distance, side)
}

// percentageStop places the stop a fixed percentage away from entry.
func (c *StopLossCalculator) percentageStop(entryPrice float64, side Side, percentage float64) float64 {
	return applyStopDistance(entryPrice, entryPrice*percentage, side)
}

// supportResistanceStop anchors the stop just beyond the nearest support
// (long) or resistance (short) within the trailing window. Falls back to the
// ATR stop when no qualifying level exists.
func (c *StopLossCalculator) supportResistanceStop(entryPrice float64, series *market.Series, side Side) float64 {
	recent := series.Tail(stopLookback)

	if side == SideLong {
		var nearest float64
		for _, level := range findSupportLevels(recent) {
			if level < entryPrice && level > nearest {
				nearest = level
			}
		}
		if nearest > 0 {
			stop := nearest - entryPrice*levelBuffer
			return math.Max(stop, entryPrice*(1-c.maxStopDistance))
		}
	} else {
		nearest := math.Inf(1)
		for _, level := range findResistanceLevels(recent) {
			if level > entryPrice && level < nearest {
				nearest = level
			}
		}
		if !math.IsInf(nearest, 1) {
			stop := nearest + entryPrice*levelBuffer
			return math.Min(stop, entryPrice*(1+c.maxStopDistance))
		}
	}

	return c.atrStop(entryPrice, series, side)
}

// volatilityStop sizes the stop distance off the standard deviation of
// recent returns. Falls back to a percentage stop with too few samples.
func (c *StopLossCalculator) volatilityStop(entryPrice float64, series *market.Series, side Side) float64 {
	returns := series.Returns()
	if len(returns) < volatilityWindow {
		return c.percentageStop(entryPrice, side, defaultStopPercentage)
	}

	stdDev := stdDev(returns[len(returns)-volatilityWindow:])
	distance := c.clampDistance(entryPrice, entryPrice*stdDev*2)
	return applyStopDistance(entryPrice, distance, side)
}

// CalculateTrailingStop ratchets the stop toward price once unrealized
// profit exceeds the trigger threshold. The result never loosens the
// current stop: max for long, min for short.
func (c *StopLossCalculator) CalculateTrailingStop(currentPrice, entryPrice, currentStop float64, side Side) float64 {
	if entryPrice <= 0 {
		return currentStop
	}

	if side == SideLong {
		profit := (currentPrice - entryPrice) / entryPrice
		if profit > c.trailingTriggerPct {
			return math.Max(currentStop, currentPrice*(1-c.trailingPct))
		}
	} else {
		profit := (entryPrice - currentPrice) / entryPrice
		if profit > c.trailingTriggerPct {
			return math.Min(currentStop, currentPrice*(1+c.trailingPct))
		}
	}

	return currentStop
}

// clampDistance bounds a raw stop distance to the configured min/max
// percentages of the entry price.
func (c *StopLossCalculator) clampDistance(entryPrice, distance float64) float64 {
	return math.Max(entryPrice*c.minStopDistance, math.Min(entryPrice*c.maxStopDistance, distance))
}

// TakeProfitCalculator derives profit target prices from the entry context.
type TakeProfitCalculator struct {
	minRiskRewardRatio float64
	targetMultiplier   float64
}

// NewTakeProfitCalculator creates a take-profit calculator from the risk config.
func NewTakeProfitCalculator(cfg Config) *TakeProfitCalculator {
	return &TakeProfitCalculator{
		minRiskRewardRatio: cfg.MinRiskRewardRatio,
		targetMultiplier:   cfg.DefaultATRMultiplier,
	}
}

// MinRiskRewardRatio returns the configured risk/reward floor.
func (c *TakeProfitCalculator) MinRiskRewardRatio() float64 {
	return c.minRiskRewardRatio
}

// CalculateTakeProfit computes a take-profit price given entry and stop.
func (c *TakeProfitCalculator) CalculateTakeProfit(entryPrice, stopLoss float64, series *market.Series, side Side, method TakeProfitMethod) float64 {
	switch method {
	case TakeProfitResistanceSupport:
		return c.resistanceSupportTarget(entryPrice, stopLoss, series, side)
	case TakeProfitATR:
		return c.atrTarget(entryPrice, series, side)
	default:
		return c.riskRewardTarget(entryPrice, stopLoss, side)
	}
}

// riskRewardTarget sets the target so the trade pays the configured multiple
// of the risked distance.
func (c *TakeProfitCalculator) riskRewardTarget(entryPrice, stopLoss float64, side Side) float64 {
	reward := math.Abs(entryPrice-stopLoss) * c.minRiskRewardRatio

	if side == SideLong {
		return entryPrice + reward
	}
	return entryPrice - reward
}

// resistanceSupportTarget aims for the nearest opposing level, accepted only
// when the implied risk/reward clears the floor. Falls back to the
// risk/reward target otherwise.
func (c *TakeProfitCalculator) resistanceSupportTarget(entryPrice, stopLoss float64, series *market.Series, side Side) float64 {
	recent := series.Tail(targetLookback)
	risk := math.Abs(entryPrice - stopLoss)

	if side == SideLong {
		nearest := math.Inf(1)
		for _, level := range findResistanceLevels(recent) {
			if level > entryPrice && level < nearest {
				nearest = level
			}
		}
		if !math.IsInf(nearest, 1) && risk > 0 {
			if (nearest-entryPrice)/risk >= c.minRiskRewardRatio {
				return nearest
			}
		}
	} else {
		var nearest float64
		for _, level := range findSupportLevels(recent) {
			if level < entryPrice && level > nearest {
				nearest = level
			}
		}
		if nearest > 0 && risk > 0 {
			if (entryPrice-nearest)/risk >= c.minRiskRewardRatio {
				return nearest
			}
		}
	}

	return c.riskRewardTarget(entryPrice, stopLoss, side)
}

// atrTarget places the target an ATR multiple away from entry, falling back
// to a flat percentage target without ATR.
func (c *TakeProfitCalculator) atrTarget(entryPrice float64, series *market.Series, side Side) float64 {
	atr, ok := series.LatestATR()
	if !ok {
		if side == SideLong {
			return entryPrice * (1 + fallbackTargetPct)
		}
		return entryPrice * (1 - fallbackTargetPct)
	}

	distance := atr * c.targetMultiplier
	if side == SideLong {
		return entryPrice + distance
	}
	return entryPrice - distance
}

// applyStopDistance offsets entry by distance in the protective direction.
func applyStopDistance(entryPrice, distance float64, side Side) float64 {
	if side == SideLong {
		return entryPrice - distance
	}
	return entryPrice + distance
}

// findSupportLevels scans for local extrema: a bar is a support when its low
// is strictly below the lows of its two neighbors on each side.
func findSupportLevels(bars []types.OHLCV) []float64 {
	supports := make([]float64, 0)
	for i := 2; i < len(bars)-2; i++ {
		low := bars[i].Low
		if low < bars[i-1].Low && low < bars[i-2].Low &&
			low < bars[i+1].Low && low < bars[i+2].Low {
			supports = append(supports, low)
		}
	}
	return supports
}

// findResistanceLevels is the symmetric definition over highs.
func findResistanceLevels(bars []types.OHLCV) []float64 {
	resistances := make([]float64, 0)
	for i := 2; i < len(bars)-2; i++ {
		high := bars[i].High
		if high > bars[i-1].High && high > bars[i-2].High &&
			high > bars[i+1].High && high > bars[i+2].High {
			resistances = append(resistances, high)
		}
	}
	return resistances
}

// stdDev computes the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}
