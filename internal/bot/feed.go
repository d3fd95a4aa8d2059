package bot

import (
	"context"
	"errors"

	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

// ErrFeedExhausted is returned by a feed once no further bars will arrive.
var ErrFeedExhausted = errors.New("feed exhausted")

// Feed supplies the trading loop with candles. Next blocks until the next
// bar is available or the context is cancelled.
type Feed interface {
	Next(ctx context.Context) (types.OHLCV, error)
}

// ReplayFeed serves a fixed historical series one bar at a time. It backs
// paper trading sessions and integration tests; a live exchange feed would
// satisfy the same interface.
type ReplayFeed struct {
	bars []types.OHLCV
	pos  int
}

// NewReplayFeed creates a feed over the given bars.
func NewReplayFeed(bars []types.OHLCV) *ReplayFeed {
	return &ReplayFeed{bars: bars}
}

// Next returns the next bar, or ErrFeedExhausted when the series ends.
func (f *ReplayFeed) Next(ctx context.Context) (types.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return types.OHLCV{}, err
	}
	if f.pos >= len(f.bars) {
		return types.OHLCV{}, ErrFeedExhausted
	}
	bar := f.bars[f.pos]
	f.pos++
	return bar, nil
}
