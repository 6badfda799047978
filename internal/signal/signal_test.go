package signal_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"cryptoagent/internal/core"
	"cryptoagent/internal/indicators"
	"cryptoagent/internal/signal"
)

func entrySnap() indicators.Snapshot {
	return indicators.Snapshot{RSI: 30, EMAFast: 101, EMAMid: 100, MACDHist: 0.5}
}

func TestEntryRequiresAllThreeConditions(t *testing.T) {
	rules := signal.DefaultRules()

	dec := rules.Evaluate(entrySnap(), nil, 100)
	assert.Equal(t, core.Buy, dec.Action)
	assert.Equal(t, core.ReasonSignal, dec.Reason)

	cases := map[string]func(*indicators.Snapshot){
		"rsi not oversold":     func(s *indicators.Snapshot) { s.RSI = 40 },
		"rsi at boundary":      func(s *indicators.Snapshot) { s.RSI = 35 },
		"ema downtrend":        func(s *indicators.Snapshot) { s.EMAFast = 99 },
		"ema equal":            func(s *indicators.Snapshot) { s.EMAFast = 100 },
		"macd hist negative":   func(s *indicators.Snapshot) { s.MACDHist = -0.1 },
		"macd hist zero":       func(s *indicators.Snapshot) { s.MACDHist = 0 },
		"rsi undefined":        func(s *indicators.Snapshot) { s.RSI = math.NaN() },
		"ema fast undefined":   func(s *indicators.Snapshot) { s.EMAFast = math.NaN() },
		"ema mid undefined":    func(s *indicators.Snapshot) { s.EMAMid = math.NaN() },
		"macd hist undefined":  func(s *indicators.Snapshot) { s.MACDHist = math.NaN() },
	}
	for name, brk := range cases {
		snap := entrySnap()
		brk(&snap)
		dec := rules.Evaluate(snap, nil, 100)
		assert.Equal(t, core.Hold, dec.Action, name)
	}
}

func TestExitPriorityStopLossFirst(t *testing.T) {
	rules := signal.DefaultRules() // SL 5%, TP 3%, RSI exit 65
	pos := &core.Position{Symbol: "BTCUSDT", EntryPrice: 100, Qty: 1}

	// -6% and overbought at once: stop-loss wins
	dec := rules.Evaluate(indicators.Snapshot{RSI: 80}, pos, 94)
	assert.Equal(t, core.Sell, dec.Action)
	assert.Equal(t, core.ReasonStopLoss, dec.Reason)

	// +4% and overbought at once: take-profit wins
	dec = rules.Evaluate(indicators.Snapshot{RSI: 80}, pos, 104)
	assert.Equal(t, core.Sell, dec.Action)
	assert.Equal(t, core.ReasonTakeProfit, dec.Reason)

	// +1% but overbought: RSI exit
	dec = rules.Evaluate(indicators.Snapshot{RSI: 70}, pos, 101)
	assert.Equal(t, core.Sell, dec.Action)
	assert.Equal(t, core.ReasonRSIOverbought, dec.Reason)

	// nothing triggered
	dec = rules.Evaluate(indicators.Snapshot{RSI: 50}, pos, 101)
	assert.Equal(t, core.Hold, dec.Action)
}

func TestExitBoundaries(t *testing.T) {
	rules := signal.DefaultRules()
	pos := &core.Position{EntryPrice: 100}

	// thresholds are inclusive
	dec := rules.Evaluate(indicators.Snapshot{RSI: 50}, pos, 95)
	assert.Equal(t, core.ReasonStopLoss, dec.Reason)
	dec = rules.Evaluate(indicators.Snapshot{RSI: 50}, pos, 103)
	assert.Equal(t, core.ReasonTakeProfit, dec.Reason)

	// RSI exit is strict
	dec = rules.Evaluate(indicators.Snapshot{RSI: 65}, pos, 101)
	assert.Equal(t, core.Hold, dec.Action)
}

func TestStopChecksFireWhileRSIUndefined(t *testing.T) {
	rules := signal.DefaultRules()
	pos := &core.Position{EntryPrice: 100}

	dec := rules.Evaluate(indicators.Snapshot{RSI: math.NaN()}, pos, 90)
	assert.Equal(t, core.Sell, dec.Action)
	assert.Equal(t, core.ReasonStopLoss, dec.Reason)

	dec = rules.Evaluate(indicators.Snapshot{RSI: math.NaN()}, pos, 110)
	assert.Equal(t, core.ReasonTakeProfit, dec.Reason)

	// undefined RSI alone never exits
	dec = rules.Evaluate(indicators.Snapshot{RSI: math.NaN()}, pos, 100)
	assert.Equal(t, core.Hold, dec.Action)
}

func TestOverboughtWithoutPositionIsHold(t *testing.T) {
	rules := signal.DefaultRules()
	dec := rules.Evaluate(indicators.Snapshot{RSI: 90, EMAFast: 101, EMAMid: 100, MACDHist: 1}, nil, 100)
	assert.Equal(t, core.Hold, dec.Action)
}
