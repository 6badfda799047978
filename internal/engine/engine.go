// Package engine is the live/paper trading loop. It glues feed candles to the
// indicator/signal/risk/ledger chain, mirrors fills into the durable history
// and hands intended orders to the execution sink. The ledger is the only
// component that touches cash or positions.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"cryptoagent/internal/core"
	"cryptoagent/internal/indicators"
	"cryptoagent/internal/ledger"
	"cryptoagent/internal/risk"
	"cryptoagent/internal/signal"
)

// maxBuffer caps the candle buffer; when hit, the oldest half is dropped.
// Indicator seeds shift when that happens, which live mode tolerates.
const maxBuffer = 10_000

type Opts struct {
	Symbol     string
	TF         string
	Equity     float64 // starting paper cash
	Risk       *risk.Manager
	Indicators indicators.Params
	Recorder   core.TradeRecorder // optional durable history
	Sink       core.ExecutionSink // optional order sink
	Advisor    core.Advisor       // optional external decision source
	NotifyFunc func(string)
}

type Engine struct {
	opts  Opts
	rules signal.Rules
	led   *ledger.Ledger
	buf   []core.Candle
	tick  int
}

func New(opts Opts) *Engine {
	if opts.NotifyFunc == nil {
		opts.NotifyFunc = func(string) {}
	}
	if opts.Indicators == (indicators.Params{}) {
		opts.Indicators = indicators.DefaultParams()
	}
	cfg := opts.Risk.Config()
	rules := signal.DefaultRules()
	rules.StopLossPct = cfg.StopLossPct
	rules.TakeProfitPct = cfg.TakeProfitPct
	return &Engine{
		opts:  opts,
		rules: rules,
		led:   ledger.New(opts.Equity, cfg.FeePct),
	}
}

func (e *Engine) Equity(price float64) float64 {
	return e.led.Equity(func(string) float64 { return price })
}

func (e *Engine) Cash() float64 { return e.led.Cash() }

func (e *Engine) Position() (core.Position, bool) { return e.led.Position(e.opts.Symbol) }

// OnCandle processes one closed candle. All risk outcomes are skips, never
// errors; an error return means the candle itself was unusable.
func (e *Engine) OnCandle(ctx context.Context, c core.Candle) error {
	if len(e.buf) > 0 && !c.Ts.After(e.buf[len(e.buf)-1].Ts) {
		return nil // duplicate or stale candle from the feed
	}
	e.buf = append(e.buf, c)
	if len(e.buf) > maxBuffer {
		e.buf = append(e.buf[:0], e.buf[len(e.buf)/2:]...)
	}
	e.tick++

	warmup := e.opts.Indicators.Warmup()
	if len(e.buf) < warmup {
		return nil
	}

	snaps := indicators.Compute(e.buf, e.opts.Indicators)
	snap := snaps[len(snaps)-1]
	price := c.Close

	pos, has := e.led.Position(e.opts.Symbol)
	var posPtr *core.Position
	if has {
		posPtr = &pos
	}

	dec := e.rules.Evaluate(snap, posPtr, price)
	if dec.Action == core.Hold && !has && e.opts.Advisor != nil {
		dec = e.askAdvisor(ctx, price)
	}

	switch dec.Action {
	case core.Sell:
		// Exits are never blocked by the daily-loss breaker.
		tr, err := e.led.Close(e.opts.Symbol, price, dec.Reason, c.Ts, e.tick)
		if err != nil {
			log.Debug().Err(err).Msg("engine: close skipped")
			return nil
		}
		e.record(tr, tr.Qty*tr.Price-tr.Fee)
		e.execute(ctx, core.Sell, tr.Qty)
		e.opts.NotifyFunc(fmt.Sprintf("CLOSE %s %.6f @ %.2f | PnL: %+.2f USDT (%s)",
			tr.Symbol, tr.Qty, tr.Price, tr.PnL, tr.Reason))
	case core.Buy:
		if ok, why := e.opts.Risk.TradingAllowed(c.Ts); !ok {
			log.Warn().Str("reason", why).Msg("engine: entry blocked by daily-loss limit")
			return nil
		}
		cfg := e.opts.Risk.Config()
		sizePct := cfg.PositionSizePct
		// Cap the entry so it never exceeds the configured max trade amount.
		if maxAmt := risk.PositionSize(e.Equity(price), cfg); e.led.Cash() > 0 && e.led.Cash()*sizePct/100 > maxAmt {
			sizePct = maxAmt / e.led.Cash() * 100
		}
		tr, err := e.led.Open(e.opts.Symbol, price, sizePct, c.Ts, e.tick)
		if err != nil {
			log.Debug().Err(err).Msg("engine: entry skipped")
			return nil
		}
		e.record(tr, tr.Qty*tr.Price+tr.Fee)
		e.execute(ctx, core.Buy, tr.Qty)
		e.opts.NotifyFunc(fmt.Sprintf("LONG open %s %.6f @ %.2f (%s)",
			tr.Symbol, tr.Qty, tr.Price, tr.Reason))
	}
	return nil
}

// askAdvisor consults the external decision source and runs the result
// through the confidence filter. Only entries come from here; exits stay
// rule-based.
func (e *Engine) askAdvisor(ctx context.Context, price float64) signal.Decision {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	rec, err := e.opts.Advisor.Recommend(cctx, e.opts.Symbol, price)
	if err != nil {
		log.Debug().Err(err).Msg("engine: advisor unavailable")
		return signal.Decision{Action: core.Hold}
	}
	rec = e.opts.Risk.FilterByConfidence(rec)
	if core.ParseAction(rec.Action) != core.Buy {
		return signal.Decision{Action: core.Hold}
	}
	log.Info().Float64("confidence", rec.Confidence).Str("reasoning", rec.Reasoning).
		Msg("engine: advisor entry accepted")
	return signal.Decision{Action: core.Buy, Reason: core.ReasonSignal}
}

func (e *Engine) record(tr core.Trade, quoteQty float64) {
	if e.opts.Recorder == nil {
		return
	}
	err := e.opts.Recorder.Append(core.TradeLogEntry{
		TS:       tr.Ts,
		Symbol:   tr.Symbol,
		Action:   tr.Action,
		Price:    tr.Price,
		QuoteQty: quoteQty,
		BaseQty:  tr.Qty,
		Reason:   tr.Reason,
		Success:  true,
	})
	if err != nil {
		log.Error().Err(err).Msg("engine: trade history append failed")
	}
}

func (e *Engine) execute(ctx context.Context, side core.Action, qty float64) {
	if e.opts.Sink == nil {
		return
	}
	if err := e.opts.Sink.Execute(ctx, e.opts.Symbol, side, qty); err != nil {
		log.Error().Err(err).Str("side", side.String()).Msg("engine: order sink rejected")
	}
}
