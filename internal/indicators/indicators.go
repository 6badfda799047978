package indicators

import (
	"math"

	"cryptoagent/internal/core"
)

// Params are the indicator lookbacks. Undefined values (warm-up, zero average
// loss in RSI) are NaN; consumers must treat NaN as "no signal".
type Params struct {
	RSILen     int
	EMAFast    int
	EMAMid     int
	EMASlow    int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBLen      int
	BBStd      float64
	ATRLen     int
}

func DefaultParams() Params {
	return Params{
		RSILen:     14,
		EMAFast:    20,
		EMAMid:     50,
		EMASlow:    200,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBLen:      20,
		BBStd:      2.0,
		ATRLen:     14,
	}
}

// Warmup is the longest lookback; candles before it are excluded from signal
// evaluation.
func (p Params) Warmup() int {
	m := p.RSILen
	for _, n := range []int{p.EMAFast, p.EMAMid, p.EMASlow, p.MACDSlow + p.MACDSignal, p.BBLen, p.ATRLen} {
		if n > m {
			m = n
		}
	}
	return m
}

type Snapshot struct {
	RSI        float64
	EMAFast    float64
	EMAMid     float64
	EMASlow    float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	BBUpper    float64
	BBMid      float64
	BBLower    float64
	ATR        float64
}

func Defined(v float64) bool { return !math.IsNaN(v) }

// EMA is seeded with the first value, k = 2/(n+1).
func EMA(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	k := 2.0 / (float64(n) + 1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = x[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI uses Wilder smoothing: the averages are seeded with the simple mean of
// the first `period` gains/losses and smoothed recursively with alpha=1/period
// afterwards. Values before the seed, and values where the average loss is
// zero, are NaN rather than 100.
func RSI(close []float64, period int) []float64 {
	out := make([]float64, len(close))
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 1 || len(close) <= period {
		return out
	}
	var avgG, avgL float64
	for i := 1; i <= period; i++ {
		d := close[i] - close[i-1]
		if d > 0 {
			avgG += d
		} else {
			avgL -= d
		}
	}
	avgG /= float64(period)
	avgL /= float64(period)
	out[period] = rsiValue(avgG, avgL)
	n := float64(period)
	for i := period + 1; i < len(close); i++ {
		d := close[i] - close[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgG = (avgG*(n-1) + g) / n
		avgL = (avgL*(n-1) + l) / n
		out[i] = rsiValue(avgG, avgL)
	}
	return out
}

func rsiValue(avgG, avgL float64) float64 {
	if avgL == 0 {
		return math.NaN()
	}
	rs := avgG / avgL
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line, its signal EMA and the histogram.
func MACD(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	ef := EMA(close, fast)
	es := EMA(close, slow)
	line = make([]float64, len(close))
	for i := range close {
		line[i] = ef[i] - es[i]
	}
	sig = EMA(line, signal)
	hist = make([]float64, len(close))
	for i := range close {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// Bollinger bands over a rolling SMA with population standard deviation.
func Bollinger(close []float64, period int, numStd float64) (upper, mid, lower []float64) {
	n := len(close)
	upper = nanSlice(n)
	mid = nanSlice(n)
	lower = nanSlice(n)
	if period < 1 {
		return
	}
	for i := period - 1; i < n; i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += close[j]
		}
		mean := sum / float64(period)
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := close[j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(period))
		mid[i] = mean
		upper[i] = mean + numStd*std
		lower[i] = mean - numStd*std
	}
	return
}

// ATR is the simple rolling mean of the true range. The first candle's true
// range is high-low (no previous close).
func ATR(candles []core.Candle, period int) []float64 {
	n := len(candles)
	out := nanSlice(n)
	if period < 1 || n == 0 {
		return out
	}
	tr := make([]float64, n)
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < n; i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	for i := period - 1; i < n; i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += tr[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// Compute evaluates every indicator over the series. The result is aligned
// one-to-one with the input candles.
func Compute(candles []core.Candle, p Params) []Snapshot {
	n := len(candles)
	out := make([]Snapshot, n)
	if n == 0 {
		return out
	}
	close := make([]float64, n)
	for i := range candles {
		close[i] = candles[i].Close
	}
	rsi := RSI(close, p.RSILen)
	emaFast := EMA(close, p.EMAFast)
	emaMid := EMA(close, p.EMAMid)
	emaSlow := EMA(close, p.EMASlow)
	macd, sig, hist := MACD(close, p.MACDFast, p.MACDSlow, p.MACDSignal)
	bbU, bbM, bbL := Bollinger(close, p.BBLen, p.BBStd)
	atr := ATR(candles, p.ATRLen)
	for i := 0; i < n; i++ {
		out[i] = Snapshot{
			RSI:        rsi[i],
			EMAFast:    emaFast[i],
			EMAMid:     emaMid[i],
			EMASlow:    emaSlow[i],
			MACD:       macd[i],
			MACDSignal: sig[i],
			MACDHist:   hist[i],
			BBUpper:    bbU[i],
			BBMid:      bbM[i],
			BBLower:    bbL[i],
			ATR:        atr[i],
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
