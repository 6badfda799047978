package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cryptoagent/internal/core"
)

func TestActionRoundTrip(t *testing.T) {
	assert.Equal(t, "buy", core.Buy.String())
	assert.Equal(t, "sell", core.Sell.String())
	assert.Equal(t, "hold", core.Hold.String())

	assert.Equal(t, core.Buy, core.ParseAction("buy"))
	assert.Equal(t, core.Sell, core.ParseAction("sell"))
	assert.Equal(t, core.Hold, core.ParseAction("hold"))
	assert.Equal(t, core.Hold, core.ParseAction("???"))
}

func TestValidateSeries(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ok := []core.Candle{
		{Ts: ts}, {Ts: ts.Add(time.Minute)}, {Ts: ts.Add(2 * time.Minute)},
	}
	assert.NoError(t, core.ValidateSeries(ok))
	assert.NoError(t, core.ValidateSeries(nil))
	assert.NoError(t, core.ValidateSeries(ok[:1]))

	dup := []core.Candle{{Ts: ts}, {Ts: ts}}
	assert.ErrorIs(t, core.ValidateSeries(dup), core.ErrBadSeries)

	rev := []core.Candle{{Ts: ts.Add(time.Minute)}, {Ts: ts}}
	assert.ErrorIs(t, core.ValidateSeries(rev), core.ErrBadSeries)
}

func TestTFDuration(t *testing.T) {
	assert.Equal(t, time.Minute, core.TFDuration("1m"))
	assert.Equal(t, 4*time.Hour, core.TFDuration("4h"))
	assert.Equal(t, 24*time.Hour, core.TFDuration("1d"))
	// unknown falls back to the default timeframe
	assert.Equal(t, 5*time.Minute, core.TFDuration("7w"))
}
