// Package risk implements advisory risk checks: sizing, stop-loss/take-profit
// evaluation, the daily-loss circuit breaker and the confidence filter. None
// of these execute anything and none return hard failures — a check that does
// not pass yields a "no action" result the caller treats as a skip.
package risk

import (
	"fmt"
	"time"

	"cryptoagent/internal/core"
)

// Config is immutable per run and passed in explicitly; there is no global
// configuration state.
type Config struct {
	StopLossPct     float64 // max loss per position, percent
	TakeProfitPct   float64 // profit target, percent
	PositionSizePct float64 // percent of equity per entry
	MaxDailyLoss    float64 // quote currency, circuit breaker threshold
	MinConfidence   float64 // 0..100, advisor recommendations below are held
	FeePct          float64 // per-side fee, percent
	MaxTradeAmount  float64 // hard cap on a single entry, quote currency
}

func DefaultConfig() Config {
	return Config{
		StopLossPct:     5.0,
		TakeProfitPct:   3.0,
		PositionSizePct: 5.0,
		MaxDailyLoss:    20.0,
		MinConfidence:   60,
		FeePct:          0.1,
		MaxTradeAmount:  10.0,
	}
}

// Advice is a structured close recommendation from a stop/take check.
type Advice struct {
	Action       core.Action
	Reason       string
	EntryPrice   float64
	CurrentPrice float64
	ChangePct    float64
}

// PositionSize clamps equity*PositionSizePct/100 to [1, MaxTradeAmount].
// Pure function, no side effects.
func PositionSize(equity float64, cfg Config) float64 {
	size := equity * cfg.PositionSizePct / 100
	if size > cfg.MaxTradeAmount {
		size = cfg.MaxTradeAmount
	}
	if size < 1 {
		size = 1
	}
	return size
}

// CheckStopLoss recommends a sell once the price has dropped thresholdPct or
// more from entry.
func CheckStopLoss(entryPrice, currentPrice, thresholdPct float64) (Advice, bool) {
	changePct := (currentPrice - entryPrice) / entryPrice * 100
	if changePct <= -thresholdPct {
		return Advice{
			Action:       core.Sell,
			Reason:       core.ReasonStopLoss,
			EntryPrice:   entryPrice,
			CurrentPrice: currentPrice,
			ChangePct:    changePct,
		}, true
	}
	return Advice{}, false
}

// CheckTakeProfit recommends a sell once the price has risen thresholdPct or
// more from entry.
func CheckTakeProfit(entryPrice, currentPrice, thresholdPct float64) (Advice, bool) {
	changePct := (currentPrice - entryPrice) / entryPrice * 100
	if changePct >= thresholdPct {
		return Advice{
			Action:       core.Sell,
			Reason:       core.ReasonTakeProfit,
			EntryPrice:   entryPrice,
			CurrentPrice: currentPrice,
			ChangePct:    changePct,
		}, true
	}
	return Advice{}, false
}

// IsTradingAllowed is the daily-loss circuit breaker: false once the realized
// P&L for the current UTC calendar day falls below -maxDailyLoss. It gates new
// entries only — open positions must stay closeable for stop-loss/take-profit.
func IsTradingAllowed(realizedPnLToday, maxDailyLoss float64) (bool, string) {
	if realizedPnLToday < -maxDailyLoss {
		return false, fmt.Sprintf("daily loss %.2f exceeds limit %.2f", realizedPnLToday, maxDailyLoss)
	}
	return true, ""
}

// PnLSource reports realized P&L for the UTC calendar day containing now.
type PnLSource interface {
	DailyPnL(now time.Time) (float64, error)
}

type Manager struct {
	cfg Config
	pnl PnLSource
}

func NewManager(cfg Config, pnl PnLSource) *Manager {
	return &Manager{cfg: cfg, pnl: pnl}
}

func (m *Manager) Config() Config { return m.cfg }

// TradingAllowed checks the circuit breaker against the durable history.
// A P&L source failure does not halt trading (advisory semantics).
func (m *Manager) TradingAllowed(now time.Time) (bool, string) {
	if m.pnl == nil {
		return true, ""
	}
	pnl, err := m.pnl.DailyPnL(now)
	if err != nil {
		return true, ""
	}
	return IsTradingAllowed(pnl, m.cfg.MaxDailyLoss)
}

// CheckPosition evaluates stop-loss then take-profit, in that order.
func (m *Manager) CheckPosition(pos core.Position, currentPrice float64) (Advice, bool) {
	if adv, ok := CheckStopLoss(pos.EntryPrice, currentPrice, m.cfg.StopLossPct); ok {
		return adv, true
	}
	if adv, ok := CheckTakeProfit(pos.EntryPrice, currentPrice, m.cfg.TakeProfitPct); ok {
		return adv, true
	}
	return Advice{}, false
}

// FilterByConfidence downgrades an externally sourced recommendation to hold
// when its confidence is below the configured minimum. Rule-based signals are
// never passed through this filter — they carry no confidence score.
func (m *Manager) FilterByConfidence(rec core.Recommendation) core.Recommendation {
	if rec.Action == "hold" || rec.Action == "" {
		return rec
	}
	if rec.Confidence < m.cfg.MinConfidence {
		out := rec
		out.Action = "hold"
		out.Reasoning = fmt.Sprintf("confidence %.0f below threshold %.0f; original: %s",
			rec.Confidence, m.cfg.MinConfidence, rec.Reasoning)
		return out
	}
	return rec
}
