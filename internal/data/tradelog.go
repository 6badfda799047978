package data

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"cryptoagent/internal/core"
)

var header = []string{"ts", "symbol", "action", "price", "quote_qty", "base_qty", "reason", "success"}

// TradeLog is the durable, append-only trade history on disk (CSV).
// Implements core.TradeRecorder.
type TradeLog struct {
	path string
	mu   sync.Mutex
}

func NewTradeLog(path string) (*TradeLog, error) {
	if path == "" {
		return nil, errors.New("empty trades path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	// ensure file exists with header
	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(abs)
		if err != nil {
			return nil, err
		}
		w := csv.NewWriter(f)
		_ = w.Write(header)
		w.Flush()
		_ = f.Close()
	}
	return &TradeLog{path: abs}, nil
}

func (t *TradeLog) Append(e core.TradeLogEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	rec := []string{
		e.TS.UTC().Format(time.RFC3339), e.Symbol, e.Action.String(),
		formatF(e.Price), formatF(e.QuoteQty), formatF(e.BaseQty),
		e.Reason, strconv.FormatBool(e.Success),
	}
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (t *TradeLog) LastN(n int, symbol string) ([]core.TradeLogEntry, error) {
	if n <= 0 {
		n = 10
	}
	all, err := t.readAll()
	if err != nil {
		return nil, err
	}
	if symbol != "" {
		filtered := all[:0]
		for _, e := range all {
			if e.Symbol == symbol {
				filtered = append(filtered, e)
			}
		}
		all = filtered
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (t *TradeLog) Since(since time.Time) ([]core.TradeLogEntry, error) {
	all, err := t.readAll()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if !e.TS.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *TradeLog) readAll() ([]core.TradeLogEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []core.TradeLogEntry
	for i := 1; i < len(rows); i++ { // skip header
		out = append(out, parseRow(rows[i]))
	}
	return out, nil
}

func parseRow(rec []string) core.TradeLogEntry {
	ts, _ := time.Parse(time.RFC3339, rec[0])
	price, _ := strconv.ParseFloat(rec[3], 64)
	quote, _ := strconv.ParseFloat(rec[4], 64)
	base, _ := strconv.ParseFloat(rec[5], 64)
	ok, _ := strconv.ParseBool(rec[7])
	return core.TradeLogEntry{
		TS:       ts,
		Symbol:   rec[1],
		Action:   core.ParseAction(rec[2]),
		Price:    price,
		QuoteQty: quote,
		BaseQty:  base,
		Reason:   rec[6],
		Success:  ok,
	}
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', 8, 64) }
