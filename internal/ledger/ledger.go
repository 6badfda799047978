// Package ledger owns the cash balance and open positions. No other component
// mutates either — risk checks and signals only recommend.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"cryptoagent/internal/core"
)

const (
	// Reserve keeps the quote balance from ever reaching exactly zero.
	Reserve = 1.0
	// MinTrade is the smallest entry worth executing.
	MinTrade = 1.0
)

var (
	ErrPositionOpen      = errors.New("position already open for instrument")
	ErrNoPosition        = errors.New("no open position for instrument")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBadPrice          = errors.New("non-finite or non-positive price")
)

// Ledger tracks cash, at most one open position per instrument, and an
// append-only trade log. Fees are symmetric and percentage-based, applied
// independently on entry and exit.
type Ledger struct {
	cash      float64
	feePct    float64 // per-side fee, percent (0.1 = 0.1%)
	positions map[string]*core.Position
	trades    []core.Trade
}

func New(initialCash, feePct float64) *Ledger {
	return &Ledger{
		cash:      initialCash,
		feePct:    feePct,
		positions: make(map[string]*core.Position),
	}
}

func (l *Ledger) Cash() float64 { return l.cash }

// Position returns a copy of the open position for the instrument, if any.
func (l *Ledger) Position(symbol string) (core.Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return core.Position{}, false
	}
	return *p, true
}

// Equity marks every open position to market and adds cash.
func (l *Ledger) Equity(mark func(symbol string) float64) float64 {
	eq := l.cash
	for sym, p := range l.positions {
		eq += p.Qty * mark(sym)
	}
	return eq
}

// Trades returns the append-only trade log, ordered by occurrence.
func (l *Ledger) Trades() []core.Trade { return l.trades }

// Open buys into the instrument at price. Sizing: min(cash*sizePct/100,
// cash-Reserve). An amount below MinTrade is a no-op rejected with
// ErrInsufficientFunds; the cash invariant (never negative) is checked before
// any mutation.
func (l *Ledger) Open(symbol string, price, sizePct float64, ts time.Time, idx int) (core.Trade, error) {
	if !validPrice(price) {
		return core.Trade{}, fmt.Errorf("open %s: %w (%v)", symbol, ErrBadPrice, price)
	}
	if _, ok := l.positions[symbol]; ok {
		return core.Trade{}, fmt.Errorf("open %s: %w", symbol, ErrPositionOpen)
	}
	amount := math.Min(l.cash*sizePct/100, l.cash-Reserve)
	if math.IsNaN(amount) || amount < MinTrade {
		return core.Trade{}, fmt.Errorf("open %s: %w (amount %.4f)", symbol, ErrInsufficientFunds, amount)
	}
	fee := amount * l.feePct / 100
	qty := (amount - fee) / price
	l.cash -= amount
	l.positions[symbol] = &core.Position{
		Symbol:      symbol,
		Qty:         qty,
		EntryPrice:  price,
		EntryAmount: amount,
		OpenedAt:    idx,
	}
	tr := core.Trade{
		Symbol: symbol,
		Action: core.Buy,
		Reason: core.ReasonSignal,
		Price:  price,
		Qty:    qty,
		Fee:    fee,
		Ts:     ts,
		Index:  idx,
	}
	l.trades = append(l.trades, tr)
	return tr, nil
}

// Close sells the whole position at price and realizes
// pnl = sell_value - exit_fee - entry_amount.
func (l *Ledger) Close(symbol string, price float64, reason string, ts time.Time, idx int) (core.Trade, error) {
	if !validPrice(price) {
		return core.Trade{}, fmt.Errorf("close %s: %w (%v)", symbol, ErrBadPrice, price)
	}
	p, ok := l.positions[symbol]
	if !ok {
		return core.Trade{}, fmt.Errorf("close %s: %w", symbol, ErrNoPosition)
	}
	sellValue := p.Qty * price
	fee := sellValue * l.feePct / 100
	pnl := sellValue - fee - p.EntryAmount
	l.cash += sellValue - fee
	delete(l.positions, symbol)
	tr := core.Trade{
		Symbol: symbol,
		Action: core.Sell,
		Reason: reason,
		Price:  price,
		Qty:    p.Qty,
		PnL:    pnl,
		Fee:    fee,
		Ts:     ts,
		Index:  idx,
	}
	l.trades = append(l.trades, tr)
	return tr, nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
