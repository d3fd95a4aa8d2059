package market

import "github.com/xerk-dot/monero-trading-bot/pkg/types"

// Series is a read-only view over ordered OHLCV bars, optionally carrying a
// parallel ATR column. The risk calculators consume only trailing windows of
// a Series and never mutate it.
type Series struct {
	bars []types.OHLCV
	atr  []float64
}

// NewSeries wraps ordered bars in a Series without an ATR column.
func NewSeries(bars []types.OHLCV) *Series {
	return &Series{bars: bars}
}

// NewSeriesWithATR wraps ordered bars together with a per-bar ATR column.
// The column is ignored unless it has the same length as bars.
func NewSeriesWithATR(bars []types.OHLCV, atr []float64) *Series {
	s := &Series{bars: bars}
	if len(atr) == len(bars) {
		s.atr = atr
	}
	return s
}

// Len returns the number of bars in the series.
func (s *Series) Len() int {
	return len(s.bars)
}

// Bars returns the underlying bar slice. Callers must treat it as read-only.
func (s *Series) Bars() []types.OHLCV {
	return s.bars
}

// Tail returns the trailing n bars, or all bars when fewer are available.
func (s *Series) Tail(n int) []types.OHLCV {
	if n >= len(s.bars) {
		return s.bars
	}
	return s.bars[len(s.bars)-n:]
}

// LatestClose returns the close price of the most recent bar.
func (s *Series) LatestClose() (float64, bool) {
	if len(s.bars) == 0 {
		return 0, false
	}
	return s.bars[len(s.bars)-1].Close, true
}

// LatestATR returns the most recent ATR value, if the series carries one.
func (s *Series) LatestATR() (float64, bool) {
	if len(s.atr) == 0 {
		return 0, false
	}
	v := s.atr[len(s.atr)-1]
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// Returns computes close-to-close percentage returns across the series.
// Bars with a non-positive previous close are skipped.
func (s *Series) Returns() []float64 {
	if len(s.bars) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(s.bars)-1)
	for i := 1; i < len(s.bars); i++ {
		prev := s.bars[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, (s.bars[i].Close-prev)/prev)
	}
	return returns
}
