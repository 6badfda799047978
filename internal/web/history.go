package web

import (
	"net/http"
	"time"
)

// KlineResp — минимальный набор полей свечи для фронтенда.
type KlineResp struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// handleHistory выдаёт свечи за указанный период через источник данных.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sym := q.Get("symbol")
	tf := q.Get("tf")
	fromStr := q.Get("from")
	toStr := q.Get("to")
	if sym == "" || tf == "" || fromStr == "" || toStr == "" {
		http.Error(w, "missing params", http.StatusBadRequest)
		return
	}

	from, err1 := time.Parse(time.RFC3339, fromStr)
	to, err2 := time.Parse(time.RFC3339, toStr)
	if err1 != nil || err2 != nil {
		http.Error(w, "bad time", http.StatusBadRequest)
		return
	}

	candles, err := s.source.History(r.Context(), sym, tf, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	out := make([]KlineResp, 0, len(candles))
	for _, c := range candles {
		out = append(out, KlineResp{
			T: c.Ts.UnixMilli(),
			O: c.Open, H: c.High, L: c.Low, C: c.Close, V: c.Volume,
		})
	}
	writeJSON(w, out)
}
