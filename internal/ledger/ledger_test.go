package ledger_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoagent/internal/core"
	"cryptoagent/internal/ledger"
)

var ts = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestOpenSizingAndFee(t *testing.T) {
	led := ledger.New(100, 0.1)

	tr, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	require.NoError(t, err)

	// amount = min(100*5%, 100-reserve) = 5, fee 0.1% of it
	assert.InDelta(t, 0.005, tr.Fee, 1e-12)
	assert.InDelta(t, (5-0.005)/100, tr.Qty, 1e-12)
	assert.InDelta(t, 95, led.Cash(), 1e-12)
	assert.Equal(t, core.Buy, tr.Action)
	assert.Equal(t, core.ReasonSignal, tr.Reason)

	pos, ok := led.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 100, pos.EntryPrice, 1e-12)
	assert.InDelta(t, 5, pos.EntryAmount, 1e-12)
}

func TestOpenCappedByReserve(t *testing.T) {
	led := ledger.New(100, 0.1)

	// 200% sizing still leaves the reserve untouched
	tr, err := led.Open("BTCUSDT", 50, 200, ts, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, led.Cash(), 1e-12)
	assert.InDelta(t, (99-99*0.001)/50, tr.Qty, 1e-12)
	assert.GreaterOrEqual(t, led.Cash(), 0.0)
}

func TestOpenRejectsSecondPosition(t *testing.T) {
	led := ledger.New(100, 0.1)
	_, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	require.NoError(t, err)

	_, err = led.Open("BTCUSDT", 100, 5, ts.Add(time.Minute), 1)
	assert.ErrorIs(t, err, ledger.ErrPositionOpen)
	assert.InDelta(t, 95, led.Cash(), 1e-12) // untouched

	// a different instrument is fine
	_, err = led.Open("ETHUSDT", 10, 5, ts.Add(time.Minute), 1)
	assert.NoError(t, err)
}

func TestOpenBelowMinTradeRejected(t *testing.T) {
	led := ledger.New(1.5, 0.1)
	_, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.InDelta(t, 1.5, led.Cash(), 1e-12)
	_, ok := led.Position("BTCUSDT")
	assert.False(t, ok)
}

func TestFlatPriceRoundTripLosesBothFees(t *testing.T) {
	led := ledger.New(100, 0.1)
	open, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	require.NoError(t, err)

	closeTr, err := led.Close("BTCUSDT", 100, core.ReasonRSIOverbought, ts.Add(time.Minute), 1)
	require.NoError(t, err)

	// same price in and out: the loss is exactly the two fees
	assert.Negative(t, closeTr.PnL)
	assert.InDelta(t, -(open.Fee + closeTr.Fee), closeTr.PnL, 1e-12)
	assert.InDelta(t, 100+closeTr.PnL, led.Cash(), 1e-12)
	assert.Equal(t, core.ReasonRSIOverbought, closeTr.Reason)

	_, ok := led.Position("BTCUSDT")
	assert.False(t, ok)
}

func TestClosePnLFormula(t *testing.T) {
	led := ledger.New(100, 0.1)
	_, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	require.NoError(t, err)

	tr, err := led.Close("BTCUSDT", 110, core.ReasonTakeProfit, ts.Add(time.Minute), 1)
	require.NoError(t, err)

	qty := (5 - 0.005) / 100.0
	sellValue := qty * 110
	exitFee := sellValue * 0.001
	assert.InDelta(t, sellValue-exitFee-5, tr.PnL, 1e-12)
	assert.InDelta(t, 95+sellValue-exitFee, led.Cash(), 1e-12)
}

func TestCloseWithoutPosition(t *testing.T) {
	led := ledger.New(100, 0.1)
	_, err := led.Close("BTCUSDT", 100, core.ReasonSignal, ts, 0)
	assert.ErrorIs(t, err, ledger.ErrNoPosition)
}

func TestBadPricesRejected(t *testing.T) {
	led := ledger.New(100, 0.1)
	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := led.Open("BTCUSDT", p, 5, ts, 0)
		assert.ErrorIs(t, err, ledger.ErrBadPrice, "price=%v", p)
	}

	_, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	require.NoError(t, err)
	_, err = led.Close("BTCUSDT", math.NaN(), core.ReasonSignal, ts, 1)
	assert.ErrorIs(t, err, ledger.ErrBadPrice)
}

func TestEquityMarksOpenPositionToMarket(t *testing.T) {
	led := ledger.New(100, 0.1)
	tr, err := led.Open("BTCUSDT", 100, 5, ts, 0)
	require.NoError(t, err)

	eq := led.Equity(func(string) float64 { return 110 })
	assert.InDelta(t, 95+tr.Qty*110, eq, 1e-12)

	// no position: equity is just cash
	led2 := ledger.New(42, 0.1)
	assert.InDelta(t, 42, led2.Equity(func(string) float64 { return 1 }), 1e-12)
}

func TestTradeLogOrdered(t *testing.T) {
	led := ledger.New(100, 0.1)
	_, err := led.Open("BTCUSDT", 100, 5, ts, 3)
	require.NoError(t, err)
	_, err = led.Close("BTCUSDT", 101, core.ReasonTakeProfit, ts.Add(time.Minute), 7)
	require.NoError(t, err)

	trades := led.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, core.Buy, trades[0].Action)
	assert.Equal(t, 3, trades[0].Index)
	assert.Equal(t, core.Sell, trades[1].Action)
	assert.Equal(t, 7, trades[1].Index)
}
