// Package history computes aggregate statistics over the durable trade log.
//
// Realized P&L here uses weighted average cost basis (avg sell price vs avg
// buy price), not matched lots. That is a deliberate approximation for
// aggregate reporting and is distinct from the exact per-trade P&L the
// simulation ledger tracks; the two are not reconciled.
package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptoagent/internal/core"
)

type SymbolPnL struct {
	Trades       int     `json:"trades"`
	BuyVolume    float64 `json:"buy_volume_usdt"`
	SellVolume   float64 `json:"sell_volume_usdt"`
	AvgBuyPrice  float64 `json:"avg_buy_price"`
	AvgSellPrice float64 `json:"avg_sell_price"`
	RealizedPnL  float64 `json:"realized_pnl"`
}

type Stats struct {
	PeriodDays  int                  `json:"period_days"`
	TotalTrades int                  `json:"total_trades"`
	Buys        int                  `json:"buys"`
	Sells       int                  `json:"sells"`
	SuccessRate float64              `json:"success_rate"`
	BuyVolume   float64              `json:"total_buy_volume"`
	SellVolume  float64              `json:"total_sell_volume"`
	BySymbol    map[string]SymbolPnL `json:"pnl_by_symbol"`
}

type Analyzer struct {
	store core.TradeRecorder
}

func NewAnalyzer(store core.TradeRecorder) *Analyzer {
	return &Analyzer{store: store}
}

// Stats aggregates the last `days` days of history. Hold records are skipped.
func (a *Analyzer) Stats(now time.Time, days int) (Stats, error) {
	since := now.Add(-time.Duration(days) * 24 * time.Hour)
	entries, err := a.store.Since(since)
	if err != nil {
		return Stats{}, err
	}
	st := aggregate(entries)
	st.PeriodDays = days
	return st, nil
}

// DailyPnL is the realized P&L for the UTC calendar day containing now.
// This is the window the daily-loss circuit breaker runs on.
func (a *Analyzer) DailyPnL(now time.Time) (float64, error) {
	midnight := now.UTC().Truncate(24 * time.Hour)
	entries, err := a.store.Since(midnight)
	if err != nil {
		return 0, err
	}
	st := aggregate(entries)
	var total float64
	for _, s := range st.BySymbol {
		total += s.RealizedPnL
	}
	return total, nil
}

func aggregate(entries []core.TradeLogEntry) Stats {
	st := Stats{BySymbol: map[string]SymbolPnL{}}
	type acc struct {
		buyVol, buyQty, sellVol, sellQty float64
		trades                           int
	}
	byn := map[string]*acc{}
	successes := 0
	for _, e := range entries {
		if e.Action == core.Hold {
			continue
		}
		st.TotalTrades++
		if e.Success {
			successes++
		}
		a := byn[e.Symbol]
		if a == nil {
			a = &acc{}
			byn[e.Symbol] = a
		}
		a.trades++
		switch e.Action {
		case core.Buy:
			st.Buys++
			st.BuyVolume += e.QuoteQty
			a.buyVol += e.QuoteQty
			a.buyQty += e.BaseQty
		case core.Sell:
			st.Sells++
			st.SellVolume += e.QuoteQty
			a.sellVol += e.QuoteQty
			a.sellQty += e.BaseQty
		}
	}
	if st.TotalTrades > 0 {
		st.SuccessRate = float64(successes) / float64(st.TotalTrades) * 100
	}
	for sym, a := range byn {
		s := SymbolPnL{Trades: a.trades, BuyVolume: a.buyVol, SellVolume: a.sellVol}
		if a.buyQty > 0 {
			s.AvgBuyPrice = a.buyVol / a.buyQty
		}
		if a.sellQty > 0 {
			s.AvgSellPrice = a.sellVol / a.sellQty
		}
		if s.AvgBuyPrice > 0 && a.sellQty > 0 {
			s.RealizedPnL = a.sellQty * (s.AvgSellPrice - s.AvgBuyPrice)
		}
		st.BySymbol[sym] = s
	}
	return st
}

// Report renders the stats plus recent trades as plain text (Telegram /report).
func (a *Analyzer) Report(now time.Time, days, recentLimit int) (string, error) {
	st, err := a.Stats(now, days)
	if err != nil {
		return "", err
	}
	recent, err := a.store.LastN(recentLimit, "")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Trade history (%dd) ===\n", st.PeriodDays)
	if st.TotalTrades == 0 {
		b.WriteString("no trades for the period\n")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "trades: %d (buys %d, sells %d)\n", st.TotalTrades, st.Buys, st.Sells)
	fmt.Fprintf(&b, "buy volume: %.2f USDT, sell volume: %.2f USDT\n", st.BuyVolume, st.SellVolume)

	syms := make([]string, 0, len(st.BySymbol))
	for s := range st.BySymbol {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	for _, sym := range syms {
		s := st.BySymbol[sym]
		fmt.Fprintf(&b, "  %s: %+.2f USDT (avg buy %.2f / avg sell %.2f)\n",
			sym, s.RealizedPnL, s.AvgBuyPrice, s.AvgSellPrice)
	}

	if len(recent) > 0 {
		fmt.Fprintf(&b, "\nlast %d trades:\n", len(recent))
		for _, t := range recent {
			mark := "+"
			if !t.Success {
				mark = "x"
			}
			fmt.Fprintf(&b, "  [%s] %s %s %s %.2f USDT @ %.2f\n",
				t.TS.Format("2006-01-02 15:04"), mark, strings.ToUpper(t.Action.String()), t.Symbol, t.QuoteQty, t.Price)
		}
	}
	return b.String(), nil
}
