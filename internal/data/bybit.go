package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"cryptoagent/internal/core"
)

const bybitBaseURL = "https://api.bybit.com"

// BybitSource fetches spot OHLCV history from the Bybit v5 REST API.
// Implements core.DataSource.
type BybitSource struct {
	BaseURL string
	client  *http.Client
}

func NewBybitSource() *BybitSource {
	return &BybitSource{
		BaseURL: bybitBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type bybitKlineResp struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List [][]string `json:"list"`
	} `json:"result"`
}

// History pages through /v5/market/kline (1000 rows per request, newest
// first) and returns candles sorted ascending by timestamp.
func (s *BybitSource) History(ctx context.Context, symbol, tf string, from, to time.Time) ([]core.Candle, error) {
	interval := bybitInterval(tf)
	out := make([]core.Candle, 0, 4096)
	start := from.UnixMilli()
	end := to.UnixMilli()

	for start < end {
		q := url.Values{}
		q.Set("category", "spot")
		q.Set("symbol", symbol)
		q.Set("interval", interval)
		q.Set("start", fmt.Sprintf("%d", start))
		q.Set("end", fmt.Sprintf("%d", end))
		q.Set("limit", "1000")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/v5/market/kline?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		var payload bybitKlineResp
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body.Close()
		if payload.RetCode != 0 {
			return nil, fmt.Errorf("bybit kline: retCode %d: %s", payload.RetCode, payload.RetMsg)
		}
		if len(payload.Result.List) == 0 {
			break
		}
		for _, row := range payload.Result.List {
			if len(row) < 6 {
				continue
			}
			out = append(out, core.Candle{
				Ts:     time.UnixMilli(atoi64(row[0])),
				Open:   atof(row[1]),
				High:   atof(row[2]),
				Low:    atof(row[3]),
				Close:  atof(row[4]),
				Volume: atof(row[5]),
			})
		}
		if len(payload.Result.List) < 1000 {
			break
		}
		// list is newest-first: advance past the newest row of the page
		start = atoi64(payload.Result.List[0][0]) + 1
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ts.Before(out[j].Ts) })
	// drop duplicates on page boundaries
	dedup := out[:0]
	for i, c := range out {
		if i > 0 && !c.Ts.After(dedup[len(dedup)-1].Ts) {
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup, nil
}

// Days is a convenience wrapper: the last n days of history up to now.
func (s *BybitSource) Days(ctx context.Context, symbol, tf string, days int) ([]core.Candle, error) {
	to := time.Now()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	return s.History(ctx, symbol, tf, from, to)
}

func bybitInterval(tf string) string {
	switch tf {
	case "1m":
		return "1"
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "1h":
		return "60"
	case "4h":
		return "240"
	case "1d":
		return "D"
	}
	return "5"
}

func atof(s string) float64 {
	var x float64
	fmt.Sscanf(s, "%f", &x)
	return x
}

func atoi64(s string) int64 {
	var x int64
	fmt.Sscanf(s, "%d", &x)
	return x
}
