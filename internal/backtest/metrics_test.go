package backtest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cryptoagent/internal/backtest"
	"cryptoagent/internal/core"
)

func pnlTrades(pnls ...float64) []core.Trade {
	out := make([]core.Trade, len(pnls))
	for i, p := range pnls {
		act := core.Sell
		if p == 0 {
			act = core.Buy
		}
		out[i] = core.Trade{Action: act, PnL: p}
	}
	return out
}

func curve(tf string, eqs ...float64) backtest.Result {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	step := core.TFDuration(tf)
	pts := make([]backtest.Point, len(eqs))
	for i, e := range eqs {
		pts[i] = backtest.Point{Ts: start.Add(time.Duration(i) * step), Equity: e}
	}
	return backtest.Result{TF: tf, EquityCurve: pts}
}

func TestWinRateExcludesBreakeven(t *testing.T) {
	r := backtest.Result{Trades: pnlTrades(1.5, 2, 3, -1, -2, 0)}

	assert.Equal(t, 6, r.TotalTrades())
	assert.Equal(t, 3, r.WinningTrades())
	assert.Equal(t, 2, r.LosingTrades())
	assert.InDelta(t, 60.0, r.WinRate(), 1e-12)
}

func TestWinRateNoClosedTrades(t *testing.T) {
	assert.Zero(t, backtest.Result{}.WinRate())
	assert.Zero(t, backtest.Result{Trades: pnlTrades(0, 0)}.WinRate())
}

func TestAvgProfitAndLoss(t *testing.T) {
	r := backtest.Result{Trades: pnlTrades(1, 3, -2, -4)}
	assert.InDelta(t, 2, r.AvgProfit(), 1e-12)
	assert.InDelta(t, -3, r.AvgLoss(), 1e-12)

	empty := backtest.Result{}
	assert.Zero(t, empty.AvgProfit())
	assert.Zero(t, empty.AvgLoss())
}

func TestTotalReturnPct(t *testing.T) {
	r := backtest.Result{InitialBalance: 100, FinalBalance: 110}
	assert.InDelta(t, 10, r.TotalReturnPct(), 1e-12)

	r = backtest.Result{InitialBalance: 100, FinalBalance: 95}
	assert.InDelta(t, -5, r.TotalReturnPct(), 1e-12)

	assert.Zero(t, backtest.Result{}.TotalReturnPct())
}

func TestMaxDrawdownTracksRunningPeak(t *testing.T) {
	r := curve("1m", 100, 110, 99, 121, 110)
	// worst: 99 against the 110 peak = 10%; the later 110 dip against 121 is
	// only ~9.09%
	assert.InDelta(t, 10.0, r.MaxDrawdownPct(), 1e-9)
}

func TestMaxDrawdownZeroOnRise(t *testing.T) {
	assert.Zero(t, curve("1m", 100, 101, 105, 120).MaxDrawdownPct())
	assert.Zero(t, curve("1m").MaxDrawdownPct())
	assert.Zero(t, curve("1m", 100).MaxDrawdownPct())
}

func TestSharpeEdgeCases(t *testing.T) {
	assert.Zero(t, curve("1h").SharpeRatio())
	assert.Zero(t, curve("1h", 100).SharpeRatio())
	// zero variance
	assert.Zero(t, curve("1h", 100, 100, 100).SharpeRatio())
	assert.Zero(t, curve("1h", 100, 200, 400).SharpeRatio()) // identical returns
}

func TestSharpeSign(t *testing.T) {
	up := curve("1h", 100, 101, 103, 104, 107)
	assert.Positive(t, up.SharpeRatio())

	down := curve("1h", 107, 104, 103, 101, 100)
	assert.Negative(t, down.SharpeRatio())
}

func TestSummarizeMatchesDerived(t *testing.T) {
	r := curve("1m", 100, 110, 99)
	r.InitialBalance = 100
	r.FinalBalance = 105
	r.Trades = pnlTrades(6, -1)

	s := r.Summarize()
	assert.InDelta(t, r.TotalReturnPct(), s.TotalReturnPct, 1e-12)
	assert.InDelta(t, r.MaxDrawdownPct(), s.MaxDrawdownPct, 1e-12)
	assert.Equal(t, 2, s.Trades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 50.0, s.WinRate, 1e-12)
	assert.InDelta(t, 6, s.AvgProfit, 1e-12)
	assert.InDelta(t, -1, s.AvgLoss, 1e-12)
}
