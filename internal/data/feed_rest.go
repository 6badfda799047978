package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cryptoagent/internal/core"
)

// RestFeed polls the latest spot candle from Bybit on a fixed interval and
// publishes it on Candles. Used by the live/paper engine loop.
type RestFeed struct {
	Symbol   string
	TF       string
	Interval time.Duration
	Candles  chan core.Candle
	client   *http.Client
	baseURL  string
}

func NewRestFeed(symbol, tf string, interval time.Duration) *RestFeed {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &RestFeed{
		Symbol:   symbol,
		TF:       tf,
		Interval: interval,
		Candles:  make(chan core.Candle, 1000),
		client:   &http.Client{Timeout: 8 * time.Second},
		baseURL:  bybitBaseURL,
	}
}

func (f *RestFeed) Start(ctx context.Context) {
	go func() {
		defer close(f.Candles)
		ticker := time.NewTicker(f.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			k, err := f.fetchLast(ctx)
			if err != nil {
				continue
			}
			select {
			case f.Candles <- k:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (f *RestFeed) fetchLast(ctx context.Context) (core.Candle, error) {
	url := fmt.Sprintf("%s/v5/market/kline?category=spot&symbol=%s&interval=%s&limit=1",
		f.baseURL, f.Symbol, bybitInterval(f.TF))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.Candle{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return core.Candle{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Candle{}, fmt.Errorf("bybit status %d", resp.StatusCode)
	}
	var payload bybitKlineResp
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Candle{}, err
	}
	if payload.RetCode != 0 || len(payload.Result.List) == 0 {
		return core.Candle{}, errors.New("empty klines")
	}
	row := payload.Result.List[0]
	return core.Candle{
		Ts:     time.UnixMilli(atoi64(row[0])),
		Open:   atof(row[1]),
		High:   atof(row[2]),
		Low:    atof(row[3]),
		Close:  atof(row[4]),
		Volume: atof(row[5]),
	}, nil
}
