package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"cryptoagent/internal/backtest"
	"cryptoagent/internal/core"
)

// TradesCSV renders the simulated trade log, one row per fill.
func TradesCSV(trades []core.Trade) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"ts", "idx", "action", "reason", "qty", "price", "fee", "pnl"})
	for _, t := range trades {
		w.Write([]string{
			itoa64(t.Ts.UnixMilli()), fmt.Sprintf("%d", t.Index), t.Action.String(), t.Reason,
			ftoa(t.Qty), ftoa(t.Price), ftoa(t.Fee), ftoa(t.PnL),
		})
	}
	w.Flush()
	return buf.Bytes()
}

// EquityCSV renders the equity curve, one row per candle.
func EquityCSV(curve []backtest.Point) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"ts", "equity"})
	for _, p := range curve {
		w.Write([]string{itoa64(p.Ts.UnixMilli()), ftoa(p.Equity)})
	}
	w.Flush()
	return buf.Bytes()
}

func itoa64(x int64) string { return fmt.Sprintf("%d", x) }
func ftoa(x float64) string { return fmt.Sprintf("%.8f", x) }
