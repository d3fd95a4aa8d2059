package risk

import (
	"math"
	"time"

	"github.com/xerk-dot/monero-trading-bot/internal/market"
	"github.com/xerk-dot/monero-trading-bot/internal/signal"
)

const tradingDaysPerYear = 252

// Manager is the risk gate and portfolio ledger. It enforces global risk
// limits, owns the open position set and trade history, and exposes the
// position lifecycle API.
//
// A Manager is not safe for concurrent use: callers must serialize access
// to a given instance. Evaluate and Metrics are read-only with respect to
// ledger state; OpenPosition and ClosePosition mutate it.
type Manager struct {
	cfg Config

	initialCapital float64
	currentCapital float64
	peakCapital    float64

	sizer      *PositionSizer
	stopCalc   *StopLossCalculator
	targetCalc *TakeProfitCalculator

	positions         map[string]*Position
	history           []ClosedTrade
	dailyPnL          map[string]float64
	consecutiveLosses int

	now func() time.Time
}

// NewManager creates a risk manager with the given starting capital.
func NewManager(initialCapital float64, cfg Config) *Manager {
	return &Manager{
		cfg:            cfg,
		initialCapital: initialCapital,
		currentCapital: initialCapital,
		peakCapital:    initialCapital,
		sizer:          NewPositionSizer(initialCapital, cfg),
		stopCalc:       NewStopLossCalculator(cfg),
		targetCalc:     NewTakeProfitCalculator(cfg),
		positions:      make(map[string]*Position),
		dailyPnL:       make(map[string]float64),
		now:            time.Now,
	}
}

// Evaluate decides whether a proposed trade is allowed and, if so, returns
// an approval carrying size, protective levels and risk/reward. No ledger
// state is mutated; the caller confirms with OpenPosition.
func (m *Manager) Evaluate(sig signal.Signal, currentPrice float64, series *market.Series) (*Approval, error) {
	if currentPrice <= 0 {
		return nil, NewRiskError(ErrInvalidInput, "current price must be positive, got %.4f", currentPrice)
	}

	if err := m.checkRiskLimits(); err != nil {
		return nil, err
	}

	var side Side
	switch sig.Type {
	case signal.TypeBuy:
		side = SideLong
	case signal.TypeSell:
		side = SideShort
	default:
		return nil, NewRiskError(ErrInvalidInput, "signal type %q has no tradable side", sig.Type)
	}

	stopLoss := m.stopCalc.CalculateStopLoss(currentPrice, series, side, StopLossATR)
	takeProfit := m.targetCalc.CalculateTakeProfit(currentPrice, stopLoss, series, side, TakeProfitRiskReward)

	size := m.sizer.CalculatePositionSize(sig.Strength, currentPrice, stopLoss, SizingFixedFractional)

	if !m.sizer.CanOpenPosition(size.DollarAmount) {
		return nil, NewRiskError(ErrExposureExceeded, "position of $%.2f exceeds portfolio exposure limits", size.DollarAmount)
	}

	riskReward := math.Abs(takeProfit-currentPrice) / math.Abs(currentPrice-stopLoss)
	if riskReward < m.cfg.MinRiskRewardRatio {
		return nil, NewRiskError(ErrRewardTooLow, "risk/reward ratio %.2f below minimum %.2f", riskReward, m.cfg.MinRiskRewardRatio)
	}

	return &Approval{
		Size:            size,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		RiskRewardRatio: riskReward,
		Side:            side,
	}, nil
}

// checkRiskLimits enforces the global circuit breakers: drawdown, losing
// streak, and the daily loss limit.
func (m *Manager) checkRiskLimits() error {
	drawdown := (m.peakCapital - m.currentCapital) / m.peakCapital
	if drawdown > m.cfg.MaxDrawdown {
		return NewRiskError(ErrRiskLimitsExceeded, "drawdown %.1f%% exceeds maximum %.1f%%", drawdown*100, m.cfg.MaxDrawdown*100)
	}

	if m.consecutiveLosses >= m.cfg.MaxConsecutiveLosses {
		return NewRiskError(ErrRiskLimitsExceeded, "%d consecutive losses reached limit of %d", m.consecutiveLosses, m.cfg.MaxConsecutiveLosses)
	}

	today := m.dayKey(m.now())
	if pnl, ok := m.dailyPnL[today]; ok {
		dailyLoss := -pnl / m.initialCapital
		if dailyLoss > m.cfg.DailyLossLimit {
			return NewRiskError(ErrRiskLimitsExceeded, "daily loss %.1f%% exceeds limit %.1f%%", dailyLoss*100, m.cfg.DailyLossLimit*100)
		}
	}

	return nil
}

// OpenPosition inserts a new position into the ledger and commits its
// notional value to portfolio exposure. Reusing a live id is an error.
func (m *Manager) OpenPosition(id string, entryPrice, units, stopLoss, takeProfit float64, side Side) error {
	if entryPrice <= 0 || units <= 0 {
		return NewRiskError(ErrInvalidInput, "entry price and units must be positive (price=%.4f units=%.4f)", entryPrice, units)
	}
	if _, exists := m.positions[id]; exists {
		return NewRiskError(ErrDuplicatePosition, "position %s is already open", id)
	}

	m.positions[id] = &Position{
		ID:         id,
		EntryPrice: entryPrice,
		Units:      units,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Side:       side,
		EntryTime:  m.now(),
	}

	m.sizer.UpdateExposure(entryPrice*units, ExposureAdd)
	return nil
}

// MarkPosition updates a position's unrealized PnL against the current
// price. Unknown ids are ignored: marking is advisory polling.
func (m *Manager) MarkPosition(id string, currentPrice float64) {
	position, ok := m.positions[id]
	if !ok {
		return
	}
	position.UnrealizedPnL = positionPnL(position, currentPrice)
}

// CheckStopLossHit reports whether the current price has crossed the
// position's stop. Unknown ids report false.
func (m *Manager) CheckStopLossHit(id string, currentPrice float64) bool {
	position, ok := m.positions[id]
	if !ok {
		return false
	}

	if position.Side == SideLong {
		return currentPrice <= position.StopLoss
	}
	return currentPrice >= position.StopLoss
}

// CheckTakeProfitHit reports whether the current price has reached the
// position's target. Unknown ids report false.
func (m *Manager) CheckTakeProfitHit(id string, currentPrice float64) bool {
	position, ok := m.positions[id]
	if !ok {
		return false
	}

	if position.Side == SideLong {
		return currentPrice >= position.TakeProfit
	}
	return currentPrice <= position.TakeProfit
}

// UpdateTrailingStop ratchets the position's stop toward the current price
// once the trade is sufficiently in profit. The stop only ever tightens.
func (m *Manager) UpdateTrailingStop(id string, currentPrice float64) {
	position, ok := m.positions[id]
	if !ok {
		return
	}
	position.StopLoss = m.stopCalc.CalculateTrailingStop(currentPrice, position.EntryPrice, position.StopLoss, position.Side)
}

// ClosePosition realizes a position's PnL, appends the trade to history,
// updates capital, streak and daily accounting, releases exposure, and
// removes the position from the ledger.
func (m *Manager) ClosePosition(id string, exitPrice float64, reason CloseReason) (*ClosedTrade, error) {
	position, ok := m.positions[id]
	if !ok {
		return nil, NewRiskError(ErrPositionNotFound, "position %s not found", id)
	}

	pnl := positionPnL(position, exitPrice)
	exitTime := m.now()

	trade := ClosedTrade{
		PositionID: id,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exitPrice,
		Units:      position.Units,
		Side:       position.Side,
		PnL:        pnl,
		ReturnPct:  pnl / (position.EntryPrice * position.Units) * 100,
		EntryTime:  position.EntryTime,
		ExitTime:   exitTime,
		Duration:   exitTime.Sub(position.EntryTime),
		Reason:     reason,
	}

	m.history = append(m.history, trade)
	m.dailyPnL[m.dayKey(exitTime)] += pnl

	m.currentCapital += pnl
	if m.currentCapital > m.peakCapital {
		m.peakCapital = m.currentCapital
	}

	if pnl < 0 {
		m.consecutiveLosses++
	} else {
		m.consecutiveLosses = 0
	}

	m.sizer.UpdateExposure(position.EntryPrice*position.Units, ExposureRemove)
	delete(m.positions, id)

	return &trade, nil
}

// Metrics derives a portfolio performance snapshot from the trade history
// and current ledger state.
func (m *Manager) Metrics() PortfolioMetrics {
	totalPnL := 0.0
	winning := 0
	losing := 0
	grossProfit := 0.0
	grossLoss := 0.0

	for _, trade := range m.history {
		totalPnL += trade.PnL
		if trade.PnL > 0 {
			winning++
			grossProfit += trade.PnL
		} else if trade.PnL < 0 {
			losing++
			grossLoss += -trade.PnL
		}
	}

	metrics := PortfolioMetrics{
		CurrentCapital:  m.currentCapital,
		TotalPnL:        totalPnL,
		TotalReturn:     (m.currentCapital - m.initialCapital) / m.initialCapital * 100,
		CurrentDrawdown: (m.peakCapital - m.currentCapital) / m.peakCapital * 100,
		MaxDrawdown:     m.maxDrawdown(),
		TotalTrades:     len(m.history),
		WinningTrades:   winning,
		LosingTrades:    losing,
		ProfitFactor:    profitFactor(grossProfit, grossLoss),
		SharpeRatio:     m.sharpeRatio(),
		OpenPositions:   len(m.positions),
		CurrentExposure: m.sizer.CurrentExposure() * 100,
	}

	if len(m.history) > 0 {
		metrics.WinRate = float64(winning) / float64(len(m.history)) * 100
	}
	if winning > 0 {
		metrics.AvgWin = grossProfit / float64(winning)
	}
	if losing > 0 {
		metrics.AvgLoss = -grossLoss / float64(losing)
	}

	return metrics
}

// maxDrawdown walks the cumulative PnL series of closed trades and returns
// the deepest peak-to-trough decline in percent.
func (m *Manager) maxDrawdown() float64 {
	if len(m.history) == 0 {
		return 0
	}

	peak := m.initialCapital
	maxDD := 0.0
	running := 0.0

	for _, trade := range m.history {
		running += trade.PnL
		capital := m.initialCapital + running
		if capital > peak {
			peak = capital
		}
		drawdown := (peak - capital) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}

	return maxDD * 100
}

// sharpeRatio computes the Sharpe ratio over per-trade returns, annualized
// by sqrt(252). Per-trade rather than time-bucketed returns is deliberate.
func (m *Manager) sharpeRatio() float64 {
	if len(m.history) < 2 {
		return 0
	}

	returns := make([]float64, len(m.history))
	for i, trade := range m.history {
		returns[i] = trade.ReturnPct / 100
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	std := stdDev(returns)
	if std == 0 {
		return 0
	}

	return (mean - m.cfg.RiskFreeRate/tradingDaysPerYear) / std * math.Sqrt(tradingDaysPerYear)
}

// profitFactor is gross profit over gross loss, +Inf when profitable with
// no losses and 0 with no trades.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// positionPnL computes unrealized/realized PnL for a position at price.
func positionPnL(position *Position, price float64) float64 {
	if position.Side == SideLong {
		return (price - position.EntryPrice) * position.Units
	}
	return (position.EntryPrice - price) * position.Units
}

// Position returns a copy of an open position.
func (m *Manager) Position(id string) (Position, bool) {
	position, ok := m.positions[id]
	if !ok {
		return Position{}, false
	}
	return *position, true
}

// OpenPositionIDs returns the ids of all open positions.
func (m *Manager) OpenPositionIDs() []string {
	ids := make([]string, 0, len(m.positions))
	for id := range m.positions {
		ids = append(ids, id)
	}
	return ids
}

// TradeHistory returns the closed trade history. The returned slice must be
// treated as read-only.
func (m *Manager) TradeHistory() []ClosedTrade {
	return m.history
}

// CurrentCapital returns the realized capital of the portfolio.
func (m *Manager) CurrentCapital() float64 {
	return m.currentCapital
}

// CurrentExposure returns the open exposure as a fraction of the portfolio.
func (m *Manager) CurrentExposure() float64 {
	return m.sizer.CurrentExposure()
}

// AvailableCapital returns the dollar capacity left under the exposure cap.
func (m *Manager) AvailableCapital() float64 {
	return m.sizer.AvailableCapital()
}

func (m *Manager) dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
