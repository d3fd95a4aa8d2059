package backtest

import (
	"fmt"
	"time"

	"github.com/xerk-dot/monero-trading-bot/internal/indicators"
	"github.com/xerk-dot/monero-trading-bot/internal/market"
	"github.com/xerk-dot/monero-trading-bot/internal/risk"
	"github.com/xerk-dot/monero-trading-bot/internal/signal"
	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

const (
	warmupBars = 50
	atrPeriod  = 14
)

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Capital   float64
	Exposure  float64
}

// Result summarizes a completed backtest run.
type Result struct {
	InitialCapital float64
	FinalCapital   float64
	Trades         []risk.ClosedTrade
	Metrics        risk.PortfolioMetrics
	EquityCurve    []EquityPoint
	BarsProcessed  int
}

// Engine replays historical bars through a strategy and the risk gate,
// simulating fills with slippage and commission. It holds at most one open
// position at a time.
type Engine struct {
	strategy   signal.Strategy
	manager    *risk.Manager
	commission float64
	slippage   float64
}

// NewEngine creates a backtest engine.
func NewEngine(strategy signal.Strategy, initialCapital float64, cfg risk.Config, commission, slippage float64) *Engine {
	return &Engine{
		strategy:   strategy,
		manager:    risk.NewManager(initialCapital, cfg),
		commission: commission,
		slippage:   slippage,
	}
}

// Run replays the bars in order. Each bar the engine first manages the open
// position (trailing stop, stop/target exits on the bar close), then asks
// the strategy for a signal and routes it through the risk gate.
func (e *Engine) Run(bars []types.OHLCV) (*Result, error) {
	if len(bars) <= warmupBars {
		return nil, fmt.Errorf("need more than %d bars, got %d", warmupBars, len(bars))
	}

	atr := indicators.NewATR(atrPeriod)
	initialCapital := e.manager.CurrentCapital()

	result := &Result{
		InitialCapital: initialCapital,
		EquityCurve:    make([]EquityPoint, 0, len(bars)-warmupBars),
	}

	positionSeq := 0

	for i := warmupBars; i < len(bars); i++ {
		window := bars[:i+1]
		price := bars[i].Close

		atrValues, err := atr.Values(window)
		if err != nil {
			return nil, fmt.Errorf("atr at bar %d: %w", i, err)
		}
		series := market.NewSeriesWithATR(window, atrValues)

		e.manageOpenPosition(price)

		sig, err := e.strategy.Generate(series)
		if err != nil {
			return nil, fmt.Errorf("strategy at bar %d: %w", i, err)
		}

		if sig.Type != signal.TypeHold && len(e.manager.OpenPositionIDs()) == 0 {
			approval, err := e.manager.Evaluate(sig, price, series)
			if err == nil && approval.Size.Units > 0 {
				positionSeq++
				id := fmt.Sprintf("pos_%d", positionSeq)
				entryPrice := e.fillPrice(price, approval.Side, true)
				if openErr := e.manager.OpenPosition(id, entryPrice, approval.Size.Units,
					approval.StopLoss, approval.TakeProfit, approval.Side); openErr != nil {
					return nil, openErr
				}
			}
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Timestamp: bars[i].Timestamp,
			Capital:   e.manager.CurrentCapital(),
			Exposure:  e.manager.CurrentExposure(),
		})
	}

	// Flatten anything still open at the last bar
	lastPrice := bars[len(bars)-1].Close
	for _, id := range e.manager.OpenPositionIDs() {
		position, _ := e.manager.Position(id)
		exit := e.fillPrice(lastPrice, position.Side, false)
		if _, err := e.manager.ClosePosition(id, exit, risk.CloseReasonManual); err != nil {
			return nil, err
		}
	}

	result.FinalCapital = e.manager.CurrentCapital()
	result.Trades = e.manager.TradeHistory()
	result.Metrics = e.manager.Metrics()
	result.BarsProcessed = len(bars) - warmupBars

	return result, nil
}

// manageOpenPosition marks, trails and exits the open position against the
// current price.
func (e *Engine) manageOpenPosition(price float64) {
	for _, id := range e.manager.OpenPositionIDs() {
		e.manager.MarkPosition(id, price)
		e.manager.UpdateTrailingStop(id, price)

		position, ok := e.manager.Position(id)
		if !ok {
			continue
		}

		switch {
		case e.manager.CheckStopLossHit(id, price):
			exit := e.fillPrice(position.StopLoss, position.Side, false)
			e.manager.ClosePosition(id, exit, risk.CloseReasonStopLoss)
		case e.manager.CheckTakeProfitHit(id, price):
			exit := e.fillPrice(position.TakeProfit, position.Side, false)
			e.manager.ClosePosition(id, exit, risk.CloseReasonTakeProfit)
		}
	}
}

// fillPrice applies slippage and commission to a raw price. Both costs work
// against the trader on entry and on exit.
func (e *Engine) fillPrice(price float64, side risk.Side, entry bool) float64 {
	cost := e.slippage + e.commission

	if entry {
		if side == risk.SideLong {
			return price * (1 + cost)
		}
		return price * (1 - cost)
	}
	if side == risk.SideLong {
		return price * (1 - cost)
	}
	return price * (1 + cost)
}
