package backtest

import (
	"math"
	"time"

	"cryptoagent/internal/core"
)

// Derived read-only metrics over the trade log and equity curve. Computed on
// access, never stored.

func (r Result) TotalReturnPct() float64 {
	if r.InitialBalance == 0 {
		return 0
	}
	return (r.FinalBalance - r.InitialBalance) / r.InitialBalance * 100
}

func (r Result) TotalTrades() int { return len(r.Trades) }

func (r Result) WinningTrades() int {
	n := 0
	for _, t := range r.Trades {
		if t.PnL > 0 {
			n++
		}
	}
	return n
}

func (r Result) LosingTrades() int {
	n := 0
	for _, t := range r.Trades {
		if t.PnL < 0 {
			n++
		}
	}
	return n
}

// WinRate over closed trades only; breakeven closes count as neither.
func (r Result) WinRate() float64 {
	wins, losses := r.WinningTrades(), r.LosingTrades()
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses) * 100
}

// MaxDrawdownPct tracks the running equity peak in a single pass.
func (r Result) MaxDrawdownPct() float64 {
	if len(r.EquityCurve) == 0 {
		return 0
	}
	peak := r.EquityCurve[0].Equity
	maxDD := 0.0
	for _, p := range r.EquityCurve {
		if p.Equity > peak {
			peak = p.Equity
		}
		dd := (peak - p.Equity) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SharpeRatio annualizes mean/stdev of per-step simple returns by the candle
// interval. Zero when fewer than two equity points or zero variance.
func (r Result) SharpeRatio() float64 {
	if len(r.EquityCurve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(r.EquityCurve)-1)
	for i := 1; i < len(r.EquityCurve); i++ {
		prev := r.EquityCurve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (r.EquityCurve[i].Equity-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, v := range returns {
		sum += v
	}
	mean := sum / float64(len(returns))
	var sq float64
	for _, v := range returns {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)))
	if std == 0 {
		return 0
	}
	periodsPerYear := (365 * 24 * time.Hour).Seconds() / core.TFDuration(r.TF).Seconds()
	return mean / std * math.Sqrt(periodsPerYear)
}

func (r Result) AvgProfit() float64 {
	var sum float64
	n := 0
	for _, t := range r.Trades {
		if t.PnL > 0 {
			sum += t.PnL
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (r Result) AvgLoss() float64 {
	var sum float64
	n := 0
	for _, t := range r.Trades {
		if t.PnL < 0 {
			sum += t.PnL
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Summary is the serializable rollup for the web API and reports.
type Summary struct {
	InitialBalance float64 `json:"initialBalance"`
	FinalBalance   float64 `json:"finalBalance"`
	TotalReturnPct float64 `json:"totalReturnPct"`
	MaxDrawdownPct float64 `json:"maxDrawdownPct"`
	SharpeRatio    float64 `json:"sharpeRatio"`
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"winRate"`
	AvgProfit      float64 `json:"avgProfit"`
	AvgLoss        float64 `json:"avgLoss"`
}

func (r Result) Summarize() Summary {
	return Summary{
		InitialBalance: r.InitialBalance,
		FinalBalance:   r.FinalBalance,
		TotalReturnPct: r.TotalReturnPct(),
		MaxDrawdownPct: r.MaxDrawdownPct(),
		SharpeRatio:    r.SharpeRatio(),
		Trades:         r.TotalTrades(),
		Wins:           r.WinningTrades(),
		Losses:         r.LosingTrades(),
		WinRate:        r.WinRate(),
		AvgProfit:      r.AvgProfit(),
		AvgLoss:        r.AvgLoss(),
	}
}
