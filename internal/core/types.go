package core

import (
	"errors"
	"fmt"
	"time"
)

type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

func ParseAction(s string) Action {
	switch s {
	case "buy":
		return Buy
	case "sell":
		return Sell
	}
	return Hold
}

// Reason tags recorded on every trade.
const (
	ReasonSignal        = "signal"
	ReasonStopLoss      = "stop_loss"
	ReasonTakeProfit    = "take_profit"
	ReasonRSIOverbought = "rsi_overbought"
	ReasonEndOfData     = "end_of_data"
)

type Candle struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

var ErrBadSeries = errors.New("candle series is not strictly increasing by timestamp")

// ValidateSeries rejects malformed input before any simulation starts.
func ValidateSeries(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Ts.After(candles[i-1].Ts) {
			return fmt.Errorf("%w: index %d (%s >= %s)", ErrBadSeries, i,
				candles[i-1].Ts.Format(time.RFC3339), candles[i].Ts.Format(time.RFC3339))
		}
	}
	return nil
}

// Position is owned exclusively by the ledger: created on entry, destroyed on
// close, never mutated in between.
type Position struct {
	Symbol      string
	Qty         float64
	EntryPrice  float64
	EntryAmount float64 // quote-currency cost basis, entry fee included
	OpenedAt    int     // candle index of the entry
}

type Trade struct {
	Symbol string    `json:"symbol"`
	Action Action    `json:"action"`
	Reason string    `json:"reason"`
	Price  float64   `json:"price"`
	Qty    float64   `json:"qty"`
	PnL    float64   `json:"pnl"` // 0 for buy
	Fee    float64   `json:"fee"`
	Ts     time.Time `json:"ts"`
	Index  int       `json:"idx"`
}

// Recommendation is what an external decision source returns. Rule-based
// signals never carry a confidence score; advisor ones do.
type Recommendation struct {
	Action     string  `json:"action"` // buy | sell | hold
	PriceFrom  float64 `json:"price_from"`
	PriceTo    float64 `json:"price_to"`
	QuoteQty   float64 `json:"quantity_usdt"`
	Confidence float64 `json:"confidence"` // 0..100
	Reasoning  string  `json:"reasoning"`
}

func TFDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	}
	return 5 * time.Minute
}
