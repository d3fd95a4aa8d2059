package risk

import "time"

// Side identifies the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// CloseReason records why a position was closed.
type CloseReason string

const (
	CloseReasonStopLoss   CloseReason = "stop_loss"
	CloseReasonTakeProfit CloseReason = "take_profit"
	CloseReasonManual     CloseReason = "manual"
)

// Config holds every tunable of the risk engine.
type Config struct {
	RiskPerTrade           float64 `yaml:"risk_per_trade"`
	MaxPositionSize        float64 `yaml:"max_position_size"`
	MaxPortfolioExposure   float64 `yaml:"max_portfolio_exposure"`
	MaxDrawdown            float64 `yaml:"max_drawdown"`
	MaxConsecutiveLosses   int     `yaml:"max_consecutive_losses"`
	DailyLossLimit         float64 `yaml:"daily_loss_limit"`
	MinRiskRewardRatio     float64 `yaml:"min_risk_reward_ratio"`
	DefaultATRMultiplier   float64 `yaml:"default_atr_multiplier"`
	MinStopDistancePct     float64 `yaml:"min_stop_distance_pct"`
	MaxStopDistancePct     float64 `yaml:"max_stop_distance_pct"`
	TrailingStopTriggerPct float64 `yaml:"trailing_stop_trigger_pct"`
	TrailingStopPct        float64 `yaml:"trailing_stop_pct"`
	RiskFreeRate           float64 `yaml:"risk_free_rate"`
}

// DefaultConfig returns the standard risk parameters.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:           0.02,
		MaxPositionSize:        0.10,
		MaxPortfolioExposure:   0.80,
		MaxDrawdown:            0.20,
		MaxConsecutiveLosses:   5,
		DailyLossLimit:         0.05,
		MinRiskRewardRatio:     2.0,
		DefaultATRMultiplier:   2.0,
		MinStopDistancePct:     0.01,
		MaxStopDistancePct:     0.05,
		TrailingStopTriggerPct: 0.02,
		TrailingStopPct:        0.02,
		RiskFreeRate:           0.02,
	}
}

// PositionSize is the bounded trade size produced by the position sizer.
// It is created fresh per sizing call and never mutated afterwards.
type PositionSize struct {
	Units              float64
	DollarAmount       float64
	PercentOfPortfolio float64
	RiskAmount         float64
	StopLossPrice      float64
}

// Position is an open position owned by the ledger. It exists in the ledger
// from OpenPosition until exactly one matching ClosePosition.
type Position struct {
	ID            string
	EntryPrice    float64
	Units         float64
	StopLoss      float64
	TakeProfit    float64
	Side          Side
	EntryTime     time.Time
	UnrealizedPnL float64
}

// ClosedTrade is the immutable record appended to trade history on close.
type ClosedTrade struct {
	PositionID string
	EntryPrice float64
	ExitPrice  float64
	Units      float64
	Side       Side
	PnL        float64
	ReturnPct  float64
	EntryTime  time.Time
	ExitTime   time.Time
	Duration   time.Duration
	Reason     CloseReason
}

// Approval carries the outcome of a successful trade evaluation. Nothing is
// mutated until the caller confirms with OpenPosition.
type Approval struct {
	Size            PositionSize
	StopLoss        float64
	TakeProfit      float64
	RiskRewardRatio float64
	Side            Side
}

// PortfolioMetrics is a snapshot of portfolio performance derived from the
// trade history and current ledger state.
type PortfolioMetrics struct {
	CurrentCapital  float64
	TotalPnL        float64
	TotalReturn     float64
	CurrentDrawdown float64
	MaxDrawdown     float64
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	AvgWin          float64
	AvgLoss         float64
	ProfitFactor    float64
	SharpeRatio     float64
	OpenPositions   int
	CurrentExposure float64
}
