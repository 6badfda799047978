package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"cryptoagent/internal/core"
)

// LoadCandlesCSV reads a candle series from a CSV with header
// timestamp,open,high,low,close,volume. Timestamps are RFC3339 or unix
// milliseconds.
func LoadCandlesCSV(path string) ([]core.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no candle rows", path)
	}
	out := make([]core.Candle, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		if len(rec) < 6 {
			return nil, fmt.Errorf("%s: row %d has %d columns, want 6", path, i+2, len(rec))
		}
		ts, err := parseTs(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
		}
		c := core.Candle{Ts: ts}
		for j, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d col %d: %w", path, i+2, j+2, err)
			}
			*dst = v
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteCandlesCSV is the inverse of LoadCandlesCSV.
func WriteCandlesCSV(path string, candles []core.Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		rec := []string{
			c.Ts.UTC().Format(time.RFC3339),
			ftoa(c.Open), ftoa(c.High), ftoa(c.Low), ftoa(c.Close), ftoa(c.Volume),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseTs(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
