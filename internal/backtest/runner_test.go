package backtest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoagent/internal/backtest"
	"cryptoagent/internal/core"
	"cryptoagent/internal/indicators"
	"cryptoagent/internal/risk"
)

// Short lookbacks so scenarios fit in ~100 candles; warm-up is 50 (EMA mid).
func testIndicators() indicators.Params {
	return indicators.Params{
		RSILen: 5, EMAFast: 8, EMAMid: 50, EMASlow: 50,
		MACDFast: 5, MACDSlow: 13, MACDSignal: 9,
		BBLen: 5, BBStd: 2, ATRLen: 5,
	}
}

func testParams() backtest.Params {
	return backtest.Params{
		Symbol:         "BTCUSDT",
		TF:             "1m",
		InitialBalance: 100,
		Risk:           risk.DefaultConfig(),
		Indicators:     testIndicators(),
	}
}

// mkCandles spaces closes one minute apart inside a single UTC day.
func mkCandles(closes []float64) []core.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.Candle, len(closes))
	for i, px := range closes {
		out[i] = core.Candle{
			Ts: start.Add(time.Duration(i) * time.Minute),
			Open: px, High: px, Low: px, Close: px, Volume: 1,
		}
	}
	return out
}

func appendSteps(c []float64, n int, step float64) []float64 {
	for i := 0; i < n; i++ {
		c = append(c, c[len(c)-1]+step)
	}
	return c
}

// appendRecovery adds small up candles with one stronger candle at offset 5;
// that kick flips the MACD histogram positive while the RSI is still oversold.
func appendRecovery(c []float64, n int) []float64 {
	for i := 0; i < n; i++ {
		step := 0.3
		if i == 5 {
			step = 1.0
		}
		c = append(c, c[len(c)-1]+step)
	}
	return c
}

// pullbackSeries: a long rally, a sharp four-candle drop, then a slow
// recovery. The entry conjunction first holds at index 72 (close 183.1):
// RSI(5) oversold from the drop, EMA8 still above EMA50 from the rally,
// MACD histogram just back above zero from the kick candle.
func pullbackSeries() []float64 {
	c := []float64{100}
	c = appendSteps(c, 60, 2)
	c = appendSteps(c, 4, -10)
	c = appendRecovery(c, 20)
	return c
}

func TestShortSeriesYieldsNoTrades(t *testing.T) {
	candles := mkCandles(appendSteps([]float64{100}, 9, 1))
	p := testParams()

	res, err := backtest.Run(candles, p)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.InDelta(t, p.InitialBalance, res.FinalBalance, 1e-12)
	require.Len(t, res.EquityCurve, 10)
	for _, pt := range res.EquityCurve { // cash-only through warm-up
		assert.InDelta(t, 100, pt.Equity, 1e-12)
	}
}

func TestFlatSeriesYieldsNoTrades(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100
	}
	res, err := backtest.Run(mkCandles(closes), testParams())
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.InDelta(t, 100, res.FinalBalance, 1e-12)
	for _, pt := range res.EquityCurve {
		assert.InDelta(t, 100, pt.Equity, 1e-12)
	}
	assert.Zero(t, res.MaxDrawdownPct())
}

func TestRejectsNonMonotonicSeries(t *testing.T) {
	candles := mkCandles([]float64{100, 101, 102})
	candles[2].Ts = candles[1].Ts // duplicate timestamp

	_, err := backtest.Run(candles, testParams())
	assert.ErrorIs(t, err, core.ErrBadSeries)
}

func TestEntryThenOverboughtExit(t *testing.T) {
	res, err := backtest.Run(mkCandles(pullbackSeries()), testParams())
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	buy, sell := res.Trades[0], res.Trades[1]
	assert.Equal(t, core.Buy, buy.Action)
	assert.Equal(t, 72, buy.Index)
	assert.InDelta(t, 183.1, buy.Price, 1e-9)

	assert.Equal(t, core.Sell, sell.Action)
	assert.Equal(t, core.ReasonRSIOverbought, sell.Reason)
	assert.Equal(t, 80, sell.Index)
	assert.InDelta(t, 0.055412, sell.PnL, 1e-6)
	assert.InDelta(t, 100.055412, res.FinalBalance, 1e-6)

	require.Len(t, res.EquityCurve, len(pullbackSeries()))
	assert.InDelta(t, res.FinalBalance, res.EquityCurve[len(res.EquityCurve)-1].Equity, 1e-9)
}

func TestStopLossExit(t *testing.T) {
	closes := pullbackSeries()[:75]
	closes = appendSteps(closes, 5, -4)

	res, err := backtest.Run(mkCandles(closes), testParams())
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	sell := res.Trades[1]
	assert.Equal(t, core.ReasonStopLoss, sell.Reason)
	assert.Equal(t, 77, sell.Index)
	assert.InDelta(t, 171.7, sell.Price, 1e-9)
	assert.InDelta(t, -0.320678, sell.PnL, 1e-6)
	assert.InDelta(t, 99.679322, res.FinalBalance, 1e-6)
	assert.Positive(t, res.MaxDrawdownPct())
}

func TestTakeProfitExit(t *testing.T) {
	closes := pullbackSeries()[:74]
	closes = appendSteps(closes, 1, 6) // jump past +3% in one candle
	closes = appendSteps(closes, 1, 0.3)

	res, err := backtest.Run(mkCandles(closes), testParams())
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	sell := res.Trades[1]
	assert.Equal(t, core.ReasonTakeProfit, sell.Reason)
	assert.Equal(t, 74, sell.Index)
	assert.InDelta(t, 0.161698, sell.PnL, 1e-6)
	assert.InDelta(t, 100.161698, res.FinalBalance, 1e-6)
}

func TestEndOfDataForceClose(t *testing.T) {
	closes := pullbackSeries()[:75] // series ends two candles after the entry

	res, err := backtest.Run(mkCandles(closes), testParams())
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	sell := res.Trades[1]
	assert.Equal(t, core.ReasonEndOfData, sell.Reason)
	assert.Equal(t, 74, sell.Index)
	assert.InDelta(t, 183.7, sell.Price, 1e-9)
	assert.InDelta(t, 100.006357, res.FinalBalance, 1e-6)

	// the forced close settles inside the curve: its tail is the final cash
	require.Len(t, res.EquityCurve, len(closes))
	assert.InDelta(t, res.FinalBalance, res.EquityCurve[len(closes)-1].Equity, 1e-9)
}

// twoCycleSeries repeats the pullback pattern after a stop-loss so a second
// entry fires late in the day.
func twoCycleSeries() []float64 {
	c := pullbackSeries()[:75]
	c = appendSteps(c, 5, -4) // stop-loss at 77
	c = appendSteps(c, 35, 3) // new rally
	c = appendSteps(c, 4, -12)
	c = appendRecovery(c, 20)
	return c
}

func TestDailyLossBreakerBlocksReentry(t *testing.T) {
	candles := mkCandles(twoCycleSeries())

	p := testParams()
	res, err := backtest.Run(candles, p)
	require.NoError(t, err)
	require.Len(t, res.Trades, 4)
	assert.Equal(t, core.ReasonStopLoss, res.Trades[1].Reason)
	assert.Equal(t, 127, res.Trades[2].Index)
	assert.InDelta(t, 99.722628, res.FinalBalance, 1e-6)

	// same series, breaker tight enough that the first loss trips it:
	// the second entry is blocked, exits would still go through
	p.Risk.MaxDailyLoss = 0.1
	res, err = backtest.Run(candles, p)
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)
	assert.InDelta(t, 99.679322, res.FinalBalance, 1e-6)
}
