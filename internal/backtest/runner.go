// Package backtest runs the rule-based strategy over a historical series.
// Pure indicators — no AI anywhere in this path. Given identical candles and
// config the output is byte-identical: no clocks, no randomness.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"cryptoagent/internal/core"
	"cryptoagent/internal/indicators"
	"cryptoagent/internal/ledger"
	"cryptoagent/internal/risk"
	"cryptoagent/internal/signal"
)

type Params struct {
	Symbol         string
	TF             string
	InitialBalance float64
	Risk           risk.Config
	Indicators     indicators.Params
}

type Point struct {
	Ts     time.Time `json:"ts"`
	Equity float64   `json:"eq"`
}

// Result carries the raw simulation output. All metrics are derived on
// demand (metrics.go) so they always reflect the current trade log.
type Result struct {
	Symbol         string       `json:"symbol"`
	TF             string       `json:"tf"`
	InitialBalance float64      `json:"initial_balance"`
	FinalBalance   float64      `json:"final_balance"`
	Trades         []core.Trade `json:"trades"`
	EquityCurve    []Point      `json:"equity"`
}

// Run simulates the strategy over the series.
//
// A malformed series (non-monotonic timestamps) is the only fatal error.
// A series shorter than the warm-up window yields zero trades and
// final == initial. Skipped entries (insufficient funds, tripped daily-loss
// breaker) are not errors and not recorded as trades.
func Run(candles []core.Candle, p Params) (Result, error) {
	if p.InitialBalance <= 0 {
		p.InitialBalance = 100
	}
	if p.Indicators == (indicators.Params{}) {
		p.Indicators = indicators.DefaultParams()
	}

	res := Result{
		Symbol:         p.Symbol,
		TF:             p.TF,
		InitialBalance: p.InitialBalance,
		FinalBalance:   p.InitialBalance,
		Trades:         []core.Trade{},
		EquityCurve:    []Point{},
	}

	if err := core.ValidateSeries(candles); err != nil {
		return res, err
	}

	warmup := p.Indicators.Warmup()
	if len(candles) < warmup {
		log.Warn().Int("candles", len(candles)).Int("warmup", warmup).
			Msg("backtest: insufficient data, no trades simulated")
		// Curve still gets one cash-only point per candle.
		for _, c := range candles {
			res.EquityCurve = append(res.EquityCurve, Point{Ts: c.Ts, Equity: p.InitialBalance})
		}
		return res, nil
	}

	rules := signal.DefaultRules()
	rules.StopLossPct = p.Risk.StopLossPct
	rules.TakeProfitPct = p.Risk.TakeProfitPct

	led := ledger.New(p.InitialBalance, p.Risk.FeePct)
	snaps := indicators.Compute(candles, p.Indicators)

	// Realized P&L per UTC calendar day, for the circuit breaker.
	dailyPnL := map[string]float64{}
	day := func(ts time.Time) string { return ts.UTC().Format("2006-01-02") }

	for i, c := range candles {
		price := c.Close

		if i >= warmup {
			pos, has := led.Position(p.Symbol)
			var posPtr *core.Position
			if has {
				posPtr = &pos
			}
			dec := rules.Evaluate(snaps[i], posPtr, price)

			switch dec.Action {
			case core.Sell:
				tr, err := led.Close(p.Symbol, price, dec.Reason, c.Ts, i)
				if err != nil {
					// Bad candle; skip without corrupting ledger state.
					log.Debug().Err(err).Int("idx", i).Msg("backtest: close skipped")
					break
				}
				dailyPnL[day(c.Ts)] += tr.PnL
			case core.Buy:
				if ok, why := risk.IsTradingAllowed(dailyPnL[day(c.Ts)], p.Risk.MaxDailyLoss); !ok {
					log.Debug().Str("reason", why).Int("idx", i).Msg("backtest: entry blocked")
					break
				}
				if _, err := led.Open(p.Symbol, price, p.Risk.PositionSizePct, c.Ts, i); err != nil {
					log.Debug().Err(err).Int("idx", i).Msg("backtest: entry skipped")
				}
			}
		}

		// Force-close anything still open on the last candle.
		if i == len(candles)-1 {
			if _, has := led.Position(p.Symbol); has {
				if _, err := led.Close(p.Symbol, price, core.ReasonEndOfData, c.Ts, i); err != nil {
					return res, fmt.Errorf("end-of-data close: %w", err)
				}
			}
		}

		// Equity is marked after the candle's action, so the tail of the
		// curve matches the final balance.
		eq := led.Equity(func(string) float64 { return price })
		res.EquityCurve = append(res.EquityCurve, Point{Ts: c.Ts, Equity: eq})
	}

	res.FinalBalance = led.Cash()
	res.Trades = led.Trades()
	return res, nil
}
