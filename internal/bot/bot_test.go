package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerk-dot/monero-trading-bot/internal/config"
	"github.com/xerk-dot/monero-trading-bot/internal/market"
	"github.com/xerk-dot/monero-trading-bot/internal/monitoring"
	"github.com/xerk-dot/monero-trading-bot/internal/notifications"
	"github.com/xerk-dot/monero-trading-bot/internal/risk"
	"github.com/xerk-dot/monero-trading-bot/internal/signal"
	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

// buyOnceStrategy emits a single buy signal and holds afterwards.
type buyOnceStrategy struct {
	fired bool
}

func (s *buyOnceStrategy) GetName() string { return "BuyOnce" }

func (s *buyOnceStrategy) Generate(series *market.Series) (signal.Signal, error) {
	if s.fired {
		return signal.Signal{Type: signal.TypeHold}, nil
	}
	s.fired = true
	return signal.Signal{Type: signal.TypeBuy, Strength: 1.0, Confidence: 1.0}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Trading.Symbol = "XMRUSDT"
	cfg.Trading.InitialCapital = 10000
	cfg.Risk = risk.DefaultConfig()
	return cfg
}

func testBars(closes ...float64) []types.OHLCV {
	bars := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = types.OHLCV{
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func flatBarsThen(closes ...float64) []types.OHLCV {
	all := make([]float64, 0, minWarmup+len(closes))
	for i := 0; i < minWarmup; i++ {
		all = append(all, 100)
	}
	all = append(all, closes...)
	return testBars(all...)
}

func newTestBot(bars []types.OHLCV, strategy signal.Strategy) *Bot {
	return New(
		testConfig(),
		NewReplayFeed(bars),
		strategy,
		notifications.NewTelegramNotifier("", ""),
		monitoring.NewHealthChecker(),
	)
}

func TestReplayFeedExhaustion(t *testing.T) {
	feed := NewReplayFeed(testBars(100, 101))
	ctx := context.Background()

	bar, err := feed.Next(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, bar.Close, 1e-9)

	_, err = feed.Next(ctx)
	require.NoError(t, err)

	_, err = feed.Next(ctx)
	assert.ErrorIs(t, err, ErrFeedExhausted)
}

func TestReplayFeedHonorsCancellation(t *testing.T) {
	feed := NewReplayFeed(testBars(100))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feed.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBotFlatMarketNoTrades(t *testing.T) {
	b := newTestBot(flatBarsThen(100, 100, 100), signal.NewMomentumStrategy(10, 30))

	require.NoError(t, b.Run(context.Background()))

	assert.Empty(t, b.Manager().TradeHistory())
	assert.InDelta(t, 10000.0, b.Manager().CurrentCapital(), 1e-9)
}

func TestBotOpensAndTakesProfit(t *testing.T) {
	// Flat warmup gives ATR=2: entry 100, stop 96, target 108, 10 units
	bars := flatBarsThen(101, 102, 103, 104, 105, 106, 107, 108, 108)

	b := newTestBot(bars, &buyOnceStrategy{})
	require.NoError(t, b.Run(context.Background()))

	history := b.Manager().TradeHistory()
	require.Len(t, history, 1)
	trade := history[0]
	assert.Equal(t, risk.SideLong, trade.Side)
	assert.Equal(t, risk.CloseReasonTakeProfit, trade.Reason)
	assert.InDelta(t, 100.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 108.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 80.0, trade.PnL, 1e-9)
	assert.InDelta(t, 10080.0, b.Manager().CurrentCapital(), 1e-9)
	assert.Empty(t, b.Manager().OpenPositionIDs())
}

func TestBotStopsOutLosingPosition(t *testing.T) {
	bars := flatBarsThen(99, 98, 97, 96, 96)

	b := newTestBot(bars, &buyOnceStrategy{})
	require.NoError(t, b.Run(context.Background()))

	history := b.Manager().TradeHistory()
	require.Len(t, history, 1)
	assert.Equal(t, risk.CloseReasonStopLoss, history[0].Reason)
	assert.InDelta(t, 96.0, history[0].ExitPrice, 1e-9)
	assert.InDelta(t, 9960.0, b.Manager().CurrentCapital(), 1e-9)
}

func TestBotLeavesPositionOpenWhenNoExitHit(t *testing.T) {
	bars := flatBarsThen(101, 102)

	b := newTestBot(bars, &buyOnceStrategy{})
	require.NoError(t, b.Run(context.Background()))

	assert.Len(t, b.Manager().OpenPositionIDs(), 1)
	assert.Empty(t, b.Manager().TradeHistory())
}
