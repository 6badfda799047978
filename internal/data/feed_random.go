package data

import (
	"context"
	"math"
	"math/rand"
	"time"

	"cryptoagent/internal/core"
)

// RandomFeed generates a seeded random-walk candle stream for paper mode.
// A fixed seed gives a reproducible run.
type RandomFeed struct {
	Symbol  string
	TF      string
	Candles chan core.Candle
	start   time.Time
	price   float64
	vol     float64
	seed    int64
}

func NewRandomFeed(symbol, tf string, start time.Time, startPrice, vol float64, seed int64) *RandomFeed {
	return &RandomFeed{
		Symbol:  symbol,
		TF:      tf,
		Candles: make(chan core.Candle, 1000),
		start:   start,
		price:   startPrice,
		vol:     vol,
		seed:    seed,
	}
}

func (f *RandomFeed) Start(ctx context.Context) {
	step := core.TFDuration(f.TF)
	go func() {
		defer close(f.Candles)
		ts := f.start
		r := rand.New(rand.NewSource(f.seed))
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			open := f.price
			ret := (r.Float64() - 0.5) * 2.0 * f.vol
			close := open * (1.0 + ret)
			high := math.Max(open, close) * (1.0 + r.Float64()*f.vol*0.5)
			low := math.Min(open, close) * (1.0 - r.Float64()*f.vol*0.5)
			vol := 10_000 + r.Float64()*5_000
			k := core.Candle{Ts: ts, Open: open, High: high, Low: low, Close: close, Volume: vol}
			select {
			case f.Candles <- k:
			case <-ctx.Done():
				return
			}
			f.price = close
			ts = ts.Add(step)
			time.Sleep(100 * time.Millisecond) // fast-forward one candle each 0.1s
		}
	}()
}
