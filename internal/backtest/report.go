package backtest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteReport prints the console summary.
func WriteReport(w io.Writer, r Result) {
	line := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "BACKTEST RESULTS %s %s\n", r.Symbol, r.TF)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Initial balance:  %.2f USDT\n", r.InitialBalance)
	fmt.Fprintf(w, "Final balance:    %.2f USDT\n", r.FinalBalance)
	fmt.Fprintf(w, "Total return:     %+.2f%%\n", r.TotalReturnPct())
	fmt.Fprintf(w, "Max drawdown:     %.2f%%\n", r.MaxDrawdownPct())
	fmt.Fprintf(w, "Sharpe ratio:     %.2f\n", r.SharpeRatio())
	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "Trades:           %d\n", r.TotalTrades())
	fmt.Fprintf(w, "Winning:          %d\n", r.WinningTrades())
	fmt.Fprintf(w, "Losing:           %d\n", r.LosingTrades())
	fmt.Fprintf(w, "Win rate:         %.1f%%\n", r.WinRate())
	fmt.Fprintf(w, "Avg profit:       %+.4f USDT\n", r.AvgProfit())
	fmt.Fprintf(w, "Avg loss:         %+.4f USDT\n", r.AvgLoss())
	fmt.Fprintln(w, line)
}

func HTMLReport(title string, sum Summary, zipName string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", title)
	b.WriteString("<style>body{font-family:Inter,system-ui,sans-serif;padding:16px;background:#0b0f17;color:#e6edf3}table{border-collapse:collapse}td,th{border:1px solid #1f2837;padding:6px 8px}</style>")
	b.WriteString("</head><body>")
	fmt.Fprintf(&b, "<h2>%s</h2>", title)
	fmt.Fprintf(&b, "<p>Return: <b>%+.2f%%</b> | Trades: <b>%d</b> | WinRate: <b>%.1f%%</b> | MaxDD: <b>%.2f%%</b> | Sharpe: <b>%.2f</b></p>",
		sum.TotalReturnPct, sum.Trades, sum.WinRate, sum.MaxDrawdownPct, sum.SharpeRatio)
	fmt.Fprintf(&b, "<p>Avg profit: %+.4f | Avg loss: %+.4f | Final: %.2f USDT</p>",
		sum.AvgProfit, sum.AvgLoss, sum.FinalBalance)
	fmt.Fprintf(&b, "<p><a href='%s'>Download ZIP</a></p>", zipName)
	b.WriteString("</body></html>")
	return b.Bytes()
}
