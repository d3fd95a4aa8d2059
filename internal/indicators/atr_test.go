package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

func rangeBars(n int, close, halfRange float64) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	for i := range bars {
		bars[i] = types.OHLCV{
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Open:      close,
			High:      close + halfRange,
			Low:       close - halfRange,
			Close:     close,
			Volume:    1000,
		}
	}
	return bars
}

func TestATRConstantRange(t *testing.T) {
	// Identical bars make every true range equal to the high-low spread
	atr := NewATR(14)

	value, err := atr.Calculate(rangeBars(30, 100, 1))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, value, 1e-9)
}

func TestATRInsufficientData(t *testing.T) {
	atr := NewATR(14)

	_, err := atr.Calculate(rangeBars(14, 100, 1))
	assert.Error(t, err)
}

func TestATRValuesLength(t *testing.T) {
	atr := NewATR(14)

	values, err := atr.Values(rangeBars(40, 100, 1))
	require.NoError(t, err)
	assert.Len(t, values, 40)
}

func TestATRRespondsToGap(t *testing.T) {
	// A gap between close and the next bar's range widens the true range
	bars := rangeBars(30, 100, 1)
	bars = append(bars, types.OHLCV{
		Timestamp: bars[len(bars)-1].Timestamp.Add(time.Hour),
		Open:      110,
		High:      111,
		Low:       109,
		Close:     110,
		Volume:    1000,
	})

	atr := NewATR(14)
	value, err := atr.Calculate(bars)
	require.NoError(t, err)

	// TR of the gap bar is |111-100| = 11, pulling the average above 2
	assert.Greater(t, value, 2.0)
}

func TestATRRequiredPeriods(t *testing.T) {
	assert.Equal(t, 15, NewATR(14).GetRequiredPeriods())
}
