// Package signal holds the deterministic buy/sell rule set. It only ever
// recommends; execution belongs to the ledger and the engine.
package signal

import (
	"cryptoagent/internal/core"
	"cryptoagent/internal/indicators"
)

type Decision struct {
	Action core.Action
	Reason string
}

var hold = Decision{Action: core.Hold}

type Rules struct {
	RSIEntry      float64 // enter long below this
	RSIExit       float64 // overbought exit above this
	StopLossPct   float64
	TakeProfitPct float64
}

func DefaultRules() Rules {
	return Rules{RSIEntry: 35, RSIExit: 65, StopLossPct: 5, TakeProfitPct: 3}
}

// Evaluate emits one of enter-long / exit-long / hold for the current candle.
//
// Entry (no open position): RSI < RSIEntry AND EMA20 > EMA50 AND MACD
// histogram > 0, all simultaneously — no partial credit. Any of the three
// undefined means hold.
//
// Exit (open position), first match wins: stop-loss, take-profit, RSI
// overbought. The stop/take checks are pure price comparisons and fire even
// while RSI is undefined.
func (r Rules) Evaluate(snap indicators.Snapshot, pos *core.Position, price float64) Decision {
	if pos != nil {
		changePct := (price - pos.EntryPrice) / pos.EntryPrice * 100
		switch {
		case changePct <= -r.StopLossPct:
			return Decision{Action: core.Sell, Reason: core.ReasonStopLoss}
		case changePct >= r.TakeProfitPct:
			return Decision{Action: core.Sell, Reason: core.ReasonTakeProfit}
		case indicators.Defined(snap.RSI) && snap.RSI > r.RSIExit:
			return Decision{Action: core.Sell, Reason: core.ReasonRSIOverbought}
		}
		return hold
	}

	if !indicators.Defined(snap.RSI) || !indicators.Defined(snap.EMAFast) ||
		!indicators.Defined(snap.EMAMid) || !indicators.Defined(snap.MACDHist) {
		return hold
	}
	if snap.RSI < r.RSIEntry && snap.EMAFast > snap.EMAMid && snap.MACDHist > 0 {
		return Decision{Action: core.Buy, Reason: core.ReasonSignal}
	}
	return hold
}
