package risk

import "math"

// SizingMethod selects the position sizing model.
type SizingMethod int

const (
	SizingFixedFractional SizingMethod = iota
	SizingKellyCriterion
	SizingVolatilityAdjusted
)

// ExposureAction directs exposure bookkeeping on confirmed opens and closes.
type ExposureAction int

const (
	ExposureAdd ExposureAction = iota
	ExposureRemove
)

// Assumed trade statistics for Kelly sizing until enough history exists
const (
	kellyWinProbability = 0.55
	kellyWinLossRatio   = 1.5
	kellyConservatism   = 0.25
	minVolatilityFactor = 0.02
)

// PositionSizer converts a signal and a stop distance into a bounded
// position size, and tracks aggregate portfolio exposure. Sizing itself is
// pure; exposure state is mutated only by the ledger on confirmed
// open/close.
type PositionSizer struct {
	portfolioValue       float64
	maxPositionSize      float64
	maxPortfolioExposure float64
	riskPerTrade         float64
	currentExposure      float64
}

// NewPositionSizer creates a position sizer over the given portfolio value.
func NewPositionSizer(portfolioValue float64, cfg Config) *PositionSizer {
	return &PositionSizer{
		portfolioValue:       portfolioValue,
		maxPositionSize:      cfg.MaxPositionSize,
		maxPortfolioExposure: cfg.MaxPortfolioExposure,
		riskPerTrade:         cfg.RiskPerTrade,
	}
}

// CalculatePositionSize computes a bounded position size for the given
// signal strength, entry price and stop-loss price.
func (s *PositionSizer) CalculatePositionSize(signalStrength, entryPrice, stopLossPrice float64, method SizingMethod) PositionSize {
	switch method {
	case SizingKellyCriterion:
		return s.kellyCriterionSizing(signalStrength, entryPrice, stopLossPrice)
	case SizingVolatilityAdjusted:
		return s.volatilityAdjustedSizing(signalStrength, entryPrice, stopLossPrice)
	default:
		return s.fixedFractionalSizing(signalStrength, entryPrice, stopLossPrice)
	}
}

// fixedFractionalSizing risks a fixed fraction of the portfolio per trade,
// scaled by signal strength and divided by the price risk to the stop.
func (s *PositionSizer) fixedFractionalSizing(signalStrength, entryPrice, stopLossPrice float64) PositionSize {
	riskAmount := s.portfolioValue * s.riskPerTrade * signalStrength

	priceRisk := 0.0
	if entryPrice > 0 {
		priceRisk = math.Abs(entryPrice-stopLossPrice) / entryPrice
	}

	dollarAmount := 0.0
	if priceRisk > 0 {
		dollarAmount = riskAmount / priceRisk
	}

	dollarAmount = s.applyCaps(dollarAmount)

	return s.buildPositionSize(dollarAmount, riskAmount, entryPrice, stopLossPrice)
}

// kellyCriterionSizing applies a conservative quarter-Kelly fraction under
// assumed win probability and payoff ratio.
func (s *PositionSizer) kellyCriterionSizing(signalStrength, entryPrice, stopLossPrice float64) PositionSize {
	kelly := (kellyWinProbability*kellyWinLossRatio - (1 - kellyWinProbability)) / kellyWinLossRatio
	kelly = math.Max(0, kelly)

	fraction := kelly * kellyConservatism * signalStrength

	dollarAmount := s.portfolioValue * math.Min(fraction, s.maxPositionSize)
	dollarAmount = math.Max(0, math.Min(dollarAmount, s.availableExposure()))

	riskAmount := s.priceRiskAmount(dollarAmount, entryPrice, stopLossPrice)
	return s.buildPositionSize(dollarAmount, riskAmount, entryPrice, stopLossPrice)
}

// volatilityAdjustedSizing shrinks the target fraction as the stop distance
// (a volatility proxy) widens.
func (s *PositionSizer) volatilityAdjustedSizing(signalStrength, entryPrice, stopLossPrice float64) PositionSize {
	volatilityFactor := minVolatilityFactor
	if entryPrice > 0 {
		volatilityFactor = math.Max(math.Abs(entryPrice-stopLossPrice)/entryPrice, minVolatilityFactor)
	}

	fraction := (s.riskPerTrade / volatilityFactor) * signalStrength
	fraction = math.Min(fraction, s.maxPositionSize)

	dollarAmount := s.portfolioValue * fraction
	dollarAmount = math.Max(0, math.Min(dollarAmount, s.availableExposure()))

	riskAmount := s.priceRiskAmount(dollarAmount, entryPrice, stopLossPrice)
	return s.buildPositionSize(dollarAmount, riskAmount, entryPrice, stopLossPrice)
}

// UpdateExposure adjusts the tracked exposure fraction on a confirmed open
// or close, clamped to [0, 1].
func (s *PositionSizer) UpdateExposure(positionValue float64, action ExposureAction) {
	if s.portfolioValue <= 0 {
		return
	}

	delta := positionValue / s.portfolioValue
	if action == ExposureAdd {
		s.currentExposure += delta
	} else {
		s.currentExposure -= delta
	}

	s.currentExposure = math.Max(0, math.Min(1, s.currentExposure))
}

// CanOpenPosition reports whether a position of the given dollar value fits
// within the maximum portfolio exposure.
func (s *PositionSizer) CanOpenPosition(positionValue float64) bool {
	if s.portfolioValue <= 0 {
		return false
	}
	potential := s.currentExposure + positionValue/s.portfolioValue
	return potential <= s.maxPortfolioExposure
}

// CurrentExposure returns the tracked exposure fraction.
func (s *PositionSizer) CurrentExposure() float64 {
	return s.currentExposure
}

// AvailableCapital returns the dollar capacity left under the exposure cap.
func (s *PositionSizer) AvailableCapital() float64 {
	return s.portfolioValue * (s.maxPortfolioExposure - s.currentExposure)
}

// applyCaps bounds a dollar amount by the per-position cap and the
// remaining exposure capacity.
func (s *PositionSizer) applyCaps(dollarAmount float64) float64 {
	dollarAmount = math.Min(dollarAmount, s.portfolioValue*s.maxPositionSize)
	dollarAmount = math.Min(dollarAmount, s.availableExposure())
	return math.Max(0, dollarAmount)
}

func (s *PositionSizer) availableExposure() float64 {
	return (s.maxPortfolioExposure - s.currentExposure) * s.portfolioValue
}

// priceRiskAmount converts a dollar position into the dollars at risk to
// the stop.
func (s *PositionSizer) priceRiskAmount(dollarAmount, entryPrice, stopLossPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return dollarAmount * math.Abs(entryPrice-stopLossPrice) / entryPrice
}

func (s *PositionSizer) buildPositionSize(dollarAmount, riskAmount, entryPrice, stopLossPrice float64) PositionSize {
	units := 0.0
	if entryPrice > 0 {
		units = dollarAmount / entryPrice
	}

	percentOfPortfolio := 0.0
	if s.portfolioValue > 0 {
		percentOfPortfolio = dollarAmount / s.portfolioValue
	}

	return PositionSize{
		Units:              units,
		DollarAmount:       dollarAmount,
		PercentOfPortfolio: percentOfPortfolio,
		RiskAmount:         riskAmount,
		StopLossPrice:      stopLossPrice,
	}
}
