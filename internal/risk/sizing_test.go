package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedFractionalSizing(t *testing.T) {
	sizer := NewPositionSizer(10000.0, DefaultConfig())

	t.Run("uncapped sizing follows the risk formula", func(t *testing.T) {
		// risk_amount = 10000 * 0.02 * 1.0 = 200
		// price_risk = |100 - 95| / 100 = 0.05 -> 4000 before caps, capped at 1000
		size := sizer.CalculatePositionSize(1.0, 100.0, 95.0, SizingFixedFractional)
		assert.InDelta(t, 200.0, size.RiskAmount, 1e-9)
		assert.InDelta(t, 1000.0, size.DollarAmount, 1e-9)
	})

	t.Run("clamped by max position size", func(t *testing.T) {
		// price_risk = 0.02 -> 200 / 0.02 = 10000 before caps
		size := sizer.CalculatePositionSize(1.0, 100.0, 98.0, SizingFixedFractional)
		assert.InDelta(t, 200.0, size.RiskAmount, 1e-9)
		assert.InDelta(t, 1000.0, size.DollarAmount, 1e-9) // 10% of portfolio
		assert.InDelta(t, 10.0, size.Units, 1e-9)
		assert.InDelta(t, 0.1, size.PercentOfPortfolio, 1e-9)
		assert.InDelta(t, 98.0, size.StopLossPrice, 1e-9)
	})

	t.Run("small risk budget stays uncapped", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RiskPerTrade = 0.002
		small := NewPositionSizer(10000.0, cfg)

		// risk_amount = 20, price_risk = 0.05 -> 400
		size := small.CalculatePositionSize(1.0, 100.0, 95.0, SizingFixedFractional)
		assert.InDelta(t, 400.0, size.DollarAmount, 1e-9)
		assert.InDelta(t, 4.0, size.Units, 1e-9)
	})

	t.Run("signal strength scales the risk", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RiskPerTrade = 0.002
		small := NewPositionSizer(10000.0, cfg)

		size := small.CalculatePositionSize(0.5, 100.0, 95.0, SizingFixedFractional)
		assert.InDelta(t, 10.0, size.RiskAmount, 1e-9)
		assert.InDelta(t, 200.0, size.DollarAmount, 1e-9)
	})

	t.Run("zero price risk sizes to zero", func(t *testing.T) {
		size := sizer.CalculatePositionSize(1.0, 100.0, 100.0, SizingFixedFractional)
		assert.Equal(t, 0.0, size.DollarAmount)
		assert.Equal(t, 0.0, size.Units)
	})

	t.Run("zero entry price sizes to zero units", func(t *testing.T) {
		size := sizer.CalculatePositionSize(1.0, 0.0, 0.0, SizingFixedFractional)
		assert.Equal(t, 0.0, size.Units)
	})
}

func TestKellyCriterionSizing(t *testing.T) {
	sizer := NewPositionSizer(10000.0, DefaultConfig())

	// kelly = (0.55*1.5 - 0.45) / 1.5 = 0.25, quarter-kelly = 0.0625
	size := sizer.CalculatePositionSize(1.0, 100.0, 98.0, SizingKellyCriterion)
	assert.InDelta(t, 625.0, size.DollarAmount, 1e-9)
	assert.InDelta(t, 6.25, size.Units, 1e-9)
	assert.InDelta(t, 625.0*0.02, size.RiskAmount, 1e-9)

	// Strength scales the fraction linearly
	half := sizer.CalculatePositionSize(0.5, 100.0, 98.0, SizingKellyCriterion)
	assert.InDelta(t, 312.5, half.DollarAmount, 1e-9)
}

func TestVolatilityAdjustedSizing(t *testing.T) {
	sizer := NewPositionSizer(10000.0, DefaultConfig())

	t.Run("wide stop shrinks the fraction", func(t *testing.T) {
		// volatility_factor = 0.05 -> fraction 0.4 capped at 0.1
		size := sizer.CalculatePositionSize(1.0, 100.0, 95.0, SizingVolatilityAdjusted)
		assert.InDelta(t, 1000.0, size.DollarAmount, 1e-9)
	})

	t.Run("weak signal shrinks below the cap", func(t *testing.T) {
		// fraction = (0.02 / 0.05) * 0.1 = 0.04
		size := sizer.CalculatePositionSize(0.1, 100.0, 95.0, SizingVolatilityAdjusted)
		assert.InDelta(t, 400.0, size.DollarAmount, 1e-9)
	})

	t.Run("volatility factor has a floor", func(t *testing.T) {
		// |100 - 99.5| / 100 = 0.005 floored to 0.02 -> fraction 1.0 capped at 0.1
		size := sizer.CalculatePositionSize(1.0, 100.0, 99.5, SizingVolatilityAdjusted)
		assert.InDelta(t, 1000.0, size.DollarAmount, 1e-9)
	})
}

func TestExposureBookkeeping(t *testing.T) {
	sizer := NewPositionSizer(10000.0, DefaultConfig())

	sizer.UpdateExposure(5000.0, ExposureAdd)
	assert.InDelta(t, 0.5, sizer.CurrentExposure(), 1e-9)

	assert.True(t, sizer.CanOpenPosition(3000.0))  // exactly at the 0.8 cap
	assert.False(t, sizer.CanOpenPosition(3100.0)) // just over

	assert.InDelta(t, 3000.0, sizer.AvailableCapital(), 1e-9)

	sizer.UpdateExposure(5000.0, ExposureRemove)
	assert.Equal(t, 0.0, sizer.CurrentExposure())

	// Removing more than was added clamps at zero
	sizer.UpdateExposure(2000.0, ExposureRemove)
	assert.Equal(t, 0.0, sizer.CurrentExposure())

	// Adding beyond the portfolio clamps at one
	sizer.UpdateExposure(20000.0, ExposureAdd)
	assert.Equal(t, 1.0, sizer.CurrentExposure())
}

func TestSizing_RespectsRemainingExposureCapacity(t *testing.T) {
	sizer := NewPositionSizer(10000.0, DefaultConfig())
	sizer.UpdateExposure(7500.0, ExposureAdd)

	// Only 0.05 of exposure capacity remains: 500 dollars
	size := sizer.CalculatePositionSize(1.0, 100.0, 98.0, SizingFixedFractional)
	assert.InDelta(t, 500.0, size.DollarAmount, 1e-9)

	// With capacity exhausted sizing never goes negative
	sizer.UpdateExposure(1500.0, ExposureAdd)
	size = sizer.CalculatePositionSize(1.0, 100.0, 98.0, SizingFixedFractional)
	assert.Equal(t, 0.0, size.DollarAmount)
}
