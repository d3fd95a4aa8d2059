package monitoring

import (
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xerk-dot/monero-trading-bot/internal/risk"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_trades_total",
			Help: "Total number of trades executed",
		},
		[]string{"symbol", "side", "outcome"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_bot_trade_pnl",
			Help:    "P&L per closed trade",
			Buckets: []float64{-1000, -500, -100, -50, -10, 0, 10, 50, 100, 500, 1000},
		},
		[]string{"symbol"},
	)

	positionSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_bot_position_size_dollars",
			Help:    "Position size in dollars",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	// Portfolio metrics
	portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_bot_portfolio_value",
			Help: "Current portfolio value",
		},
	)

	drawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_bot_drawdown_percent",
			Help: "Current drawdown percentage",
		},
	)

	exposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_bot_exposure_percent",
			Help: "Current portfolio exposure percentage",
		},
	)

	winRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_bot_win_rate_percent",
			Help: "Current win rate percentage",
		},
	)

	sharpeRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_bot_sharpe_ratio",
			Help: "Current Sharpe ratio",
		},
	)

	profitFactor = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_bot_profit_factor",
			Help: "Current profit factor",
		},
	)

	// Signal metrics
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_signals_total",
			Help: "Total signals generated",
		},
		[]string{"symbol", "signal_type", "strategy"},
	)

	// Risk metrics
	riskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_risk_rejections_total",
			Help: "Number of trades rejected by risk management",
		},
		[]string{"reason"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_bot_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(positionSize)
	prometheus.MustRegister(portfolioValue)
	prometheus.MustRegister(drawdown)
	prometheus.MustRegister(exposure)
	prometheus.MustRegister(winRate)
	prometheus.MustRegister(sharpeRatio)
	prometheus.MustRegister(profitFactor)
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(riskRejections)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records a closed trade
func RecordTrade(symbol string, trade *risk.ClosedTrade) {
	outcome := "win"
	if trade.PnL < 0 {
		outcome = "loss"
	}
	tradesTotal.WithLabelValues(symbol, string(trade.Side), outcome).Inc()
	tradePnL.WithLabelValues(symbol).Observe(trade.PnL)
	positionSize.WithLabelValues(symbol).Observe(trade.EntryPrice * trade.Units)
}

// RecordSignal records a generated signal
func RecordSignal(symbol, signalType, strategy string) {
	signalsTotal.WithLabelValues(symbol, signalType, strategy).Inc()
}

// RecordRiskRejection records a trade rejected by risk management
func RecordRiskRejection(reason string) {
	riskRejections.WithLabelValues(reason).Inc()
}

// RecordError records an error metric
func RecordError(component string) {
	errorsTotal.WithLabelValues(component).Inc()
}

// UpdatePortfolioMetrics publishes a portfolio snapshot to the gauges.
func UpdatePortfolioMetrics(metrics risk.PortfolioMetrics) {
	portfolioValue.Set(metrics.CurrentCapital)
	drawdown.Set(metrics.CurrentDrawdown)
	exposure.Set(metrics.CurrentExposure)
	winRate.Set(metrics.WinRate)
	sharpeRatio.Set(metrics.SharpeRatio)

	// Gauges cannot carry +Inf meaningfully; cap the profit factor
	pf := metrics.ProfitFactor
	if math.IsInf(pf, 1) {
		pf = math.MaxFloat64
	}
	profitFactor.Set(pf)
}
