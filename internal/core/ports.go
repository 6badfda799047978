package core

import (
	"context"
	"time"
)

// TradeLogEntry is the durable-history record shape. The aggregate P&L in
// internal/history works off QuoteQty/BaseQty, not the per-trade PnL.
type TradeLogEntry struct {
	TS       time.Time
	Symbol   string
	Action   Action
	Price    float64
	QuoteQty float64 // quote-currency volume of the fill
	BaseQty  float64 // base-currency quantity
	Reason   string
	Success  bool
}

// TradeRecorder is the durable trade ledger: append-only, never mutated or
// deleted by the engine.
type TradeRecorder interface {
	Append(TradeLogEntry) error
	LastN(n int, symbol string) ([]TradeLogEntry, error)
	Since(t time.Time) ([]TradeLogEntry, error)
}

// DataSource provides an ordered OHLCV series for an instrument and horizon.
type DataSource interface {
	History(ctx context.Context, symbol, tf string, from, to time.Time) ([]Candle, error)
}

// Advisor is an optional external decision source (e.g. an LLM client).
// A zero-value Recommendation with Action "hold" means no opinion.
type Advisor interface {
	Recommend(ctx context.Context, symbol string, price float64) (Recommendation, error)
}

// ExecutionSink accepts intended orders. The engine never assumes the fill
// price equals the requested price.
type ExecutionSink interface {
	Execute(ctx context.Context, symbol string, side Action, qty float64) error
}
