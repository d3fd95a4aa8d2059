package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/xerk-dot/monero-trading-bot/internal/config"
	"github.com/xerk-dot/monero-trading-bot/internal/execution"
	"github.com/xerk-dot/monero-trading-bot/internal/indicators"
	"github.com/xerk-dot/monero-trading-bot/internal/market"
	"github.com/xerk-dot/monero-trading-bot/internal/monitoring"
	"github.com/xerk-dot/monero-trading-bot/internal/notifications"
	"github.com/xerk-dot/monero-trading-bot/internal/risk"
	"github.com/xerk-dot/monero-trading-bot/internal/signal"
	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

const (
	atrPeriod    = 14
	maxHistory   = 500
	minWarmup    = 50
	errorBackoff = 30 * time.Second
)

// Bot runs the trading loop: pull a bar from the feed, manage open
// positions, generate a signal, and route new trades through the risk gate.
type Bot struct {
	cfg      *config.Config
	feed     Feed
	strategy signal.Strategy
	manager  *risk.Manager
	orders   *execution.PaperOrderManager
	notifier notifications.Notifier
	health   *monitoring.HealthChecker
	atr      *indicators.ATR

	history []types.OHLCV
}

// New creates a bot wired to the given feed and strategy.
func New(cfg *config.Config, feed Feed, strategy signal.Strategy, notifier notifications.Notifier, health *monitoring.HealthChecker) *Bot {
	return &Bot{
		cfg:      cfg,
		feed:     feed,
		strategy: strategy,
		manager:  risk.NewManager(cfg.Trading.InitialCapital, cfg.Risk),
		orders:   execution.NewPaperOrderManager(cfg.Trading.Slippage),
		notifier: notifier,
		health:   health,
		atr:      indicators.NewATR(atrPeriod),
	}
}

// Manager exposes the underlying risk manager, mainly for status reporting.
func (b *Bot) Manager() *risk.Manager {
	return b.manager
}

// Run executes trading cycles until the context is cancelled or the feed is
// exhausted. Cycle errors are recorded and retried after a backoff rather
// than stopping the loop.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("starting trading loop for %s (capital $%.2f)", b.cfg.Trading.Symbol, b.cfg.Trading.InitialCapital)

	for {
		bar, err := b.feed.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrFeedExhausted) {
				log.Println("feed exhausted, stopping")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			monitoring.RecordError("feed")
			b.health.RecordError(err.Error())
			log.Printf("feed error: %v (retrying in %s)", err, errorBackoff)

			select {
			case <-time.After(errorBackoff):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := b.cycle(bar); err != nil {
			monitoring.RecordError("cycle")
			b.health.RecordError(err.Error())
			log.Printf("cycle error: %v", err)
			continue
		}

		b.health.RecordCycle(bar.Close, len(b.manager.OpenPositionIDs()))
	}
}

// cycle processes one bar end to end.
func (b *Bot) cycle(bar types.OHLCV) error {
	b.history = append(b.history, bar)
	if len(b.history) > maxHistory {
		b.history = b.history[len(b.history)-maxHistory:]
	}

	price := bar.Close
	b.managePositions(price)

	if len(b.history) < minWarmup {
		return nil
	}

	atrValues, err := b.atr.Values(b.history)
	if err != nil {
		return fmt.Errorf("atr: %w", err)
	}
	series := market.NewSeriesWithATR(b.history, atrValues)

	sig, err := b.strategy.Generate(series)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	monitoring.RecordSignal(b.cfg.Trading.Symbol, string(sig.Type), b.strategy.GetName())

	if sig.Type != signal.TypeHold && len(b.manager.OpenPositionIDs()) == 0 {
		if err := b.tryOpen(sig, price, series); err != nil {
			return err
		}
	}

	monitoring.UpdatePortfolioMetrics(b.manager.Metrics())
	return nil
}

// tryOpen routes a signal through the risk gate and opens the position when
// approved. Risk rejections are expected behavior, not cycle failures.
func (b *Bot) tryOpen(sig signal.Signal, price float64, series *market.Series) error {
	approval, err := b.manager.Evaluate(sig, price, series)
	if err != nil {
		var riskErr *risk.RiskError
		if errors.As(err, &riskErr) {
			monitoring.RecordRiskRejection(riskErr.Code)
			log.Printf("trade rejected: %v", riskErr)
			if riskErr.Code == risk.ErrRiskLimitsExceeded {
				b.notifier.SendAlert(notifications.AlertCritical,
					fmt.Sprintf("🛑 *RISK LIMIT*\n\n%s", riskErr.Message))
			}
			return nil
		}
		return err
	}

	if approval.Size.Units <= 0 {
		return nil
	}

	order, err := b.orders.PlaceMarketOrder(b.cfg.Trading.Symbol, entrySide(approval.Side), approval.Size.Units, price)
	if err != nil {
		return fmt.Errorf("entry order: %w", err)
	}

	id := uuid.NewString()
	if err := b.manager.OpenPosition(id, order.AvgFillPrice, order.FilledAmount,
		approval.StopLoss, approval.TakeProfit, approval.Side); err != nil {
		return err
	}

	position, _ := b.manager.Position(id)
	log.Printf("opened %s %s: %.4f units @ $%.4f (stop $%.4f, target $%.4f, rr %.2f)",
		position.Side, b.cfg.Trading.Symbol, position.Units, position.EntryPrice,
		position.StopLoss, position.TakeProfit, approval.RiskRewardRatio)

	if t, ok := b.notifier.(*notifications.TelegramNotifier); ok {
		t.SendPositionOpened(b.cfg.Trading.Symbol, position, approval.RiskRewardRatio)
	}

	return nil
}

// managePositions marks open positions, ratchets trailing stops, and exits
// on stop or target hits.
func (b *Bot) managePositions(price float64) {
	for _, id := range b.manager.OpenPositionIDs() {
		b.manager.MarkPosition(id, price)
		b.manager.UpdateTrailingStop(id, price)

		var reason risk.CloseReason
		switch {
		case b.manager.CheckStopLossHit(id, price):
			reason = risk.CloseReasonStopLoss
		case b.manager.CheckTakeProfitHit(id, price):
			reason = risk.CloseReasonTakeProfit
		default:
			continue
		}

		position, _ := b.manager.Position(id)
		order, err := b.orders.PlaceMarketOrder(b.cfg.Trading.Symbol, exitSide(position.Side), position.Units, price)
		if err != nil {
			monitoring.RecordError("close")
			log.Printf("failed to place exit order for %s: %v", id, err)
			continue
		}

		trade, err := b.manager.ClosePosition(id, order.AvgFillPrice, reason)
		if err != nil {
			monitoring.RecordError("close")
			log.Printf("failed to close position %s: %v", id, err)
			continue
		}

		log.Printf("closed %s (%s): pnl $%.2f (%.2f%%)", id, reason, trade.PnL, trade.ReturnPct)
		monitoring.RecordTrade(b.cfg.Trading.Symbol, trade)

		if t, ok := b.notifier.(*notifications.TelegramNotifier); ok {
			t.SendPositionClosed(b.cfg.Trading.Symbol, *trade)
		}
	}
}

// entrySide maps a position side to the order side that opens it.
func entrySide(side risk.Side) execution.OrderSide {
	if side == risk.SideLong {
		return execution.OrderSideBuy
	}
	return execution.OrderSideSell
}

// exitSide maps a position side to the order side that flattens it.
func exitSide(side risk.Side) execution.OrderSide {
	if side == risk.SideLong {
		return execution.OrderSideSell
	}
	return execution.OrderSideBuy
}
