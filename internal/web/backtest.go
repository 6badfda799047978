package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cryptoagent/internal/backtest"
	"cryptoagent/internal/export"
)

type btReq struct {
	Symbol         string  `json:"symbol"`
	TF             string  `json:"tf"`
	From           string  `json:"from"` // RFC3339
	To             string  `json:"to"`
	InitialBalance float64 `json:"initialBalance"`

	// optional risk overrides; zero = keep server config
	StopLossPct     float64 `json:"stopLossPct"`
	TakeProfitPct   float64 `json:"takeProfitPct"`
	PositionSizePct float64 `json:"positionSizePct"`
	MaxDailyLoss    float64 `json:"maxDailyLoss"`
	FeePct          float64 `json:"feePct"`
}

type btResp struct {
	Summary   backtest.Summary  `json:"summary"`
	Artifacts map[string]string `json:"artifacts"`
	ID        string            `json:"id"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req btReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	from, err1 := time.Parse(time.RFC3339, req.From)
	to, err2 := time.Parse(time.RFC3339, req.To)
	if err1 != nil || err2 != nil || !to.After(from) {
		http.Error(w, "bad dates", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}
	if req.TF == "" {
		req.TF = "5m"
	}
	if req.InitialBalance <= 0 {
		req.InitialBalance = 100
	}

	riskCfg := s.riskCfg
	if req.StopLossPct > 0 {
		riskCfg.StopLossPct = req.StopLossPct
	}
	if req.TakeProfitPct > 0 {
		riskCfg.TakeProfitPct = req.TakeProfitPct
	}
	if req.PositionSizePct > 0 {
		riskCfg.PositionSizePct = req.PositionSizePct
	}
	if req.MaxDailyLoss > 0 {
		riskCfg.MaxDailyLoss = req.MaxDailyLoss
	}
	if req.FeePct > 0 {
		riskCfg.FeePct = req.FeePct
	}

	candles, err := s.source.History(r.Context(), req.Symbol, req.TF, from, to)
	if err != nil {
		http.Error(w, "history fetch: "+err.Error(), http.StatusBadGateway)
		return
	}

	res, err := backtest.Run(candles, backtest.Params{
		Symbol:         req.Symbol,
		TF:             req.TF,
		InitialBalance: req.InitialBalance,
		Risk:           riskCfg,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id := fmt.Sprintf("bt_%d", time.Now().UnixNano())
	base := filepath.Join(os.TempDir(), "cryptoagent", id)

	bundle := export.Bundle{
		"trades.csv":  export.TradesCSV(res.Trades),
		"equity.csv":  export.EquityCSV(res.EquityCurve),
		"equity.svg":  export.EquitySVG(res, 900, 300),
		"report.html": backtest.HTMLReport("Backtest Report", res.Summarize(), "/api/export?id="+id),
	}
	if err := bundle.WriteDir(base); err != nil {
		http.Error(w, "write artifacts", http.StatusInternalServerError)
		return
	}
	zipPath := filepath.Join(base, "report.zip")
	if err := bundle.WriteZip(zipPath); err != nil {
		http.Error(w, "zip", http.StatusInternalServerError)
		return
	}
	s.artMu.Lock()
	s.art[id] = zipPath
	s.artMu.Unlock()

	writeJSON(w, btResp{
		Summary: res.Summarize(),
		ID:      id,
		Artifacts: map[string]string{
			"zip":        "/api/export?id=" + id,
			"equity_svg": "/api/file?id=" + id + "&name=equity.svg",
		},
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id", http.StatusBadRequest)
		return
	}
	s.artMu.Lock()
	path := s.art[id]
	s.artMu.Unlock()
	if path == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=report.zip")
	http.ServeFile(w, r, path)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	name := r.URL.Query().Get("name")
	if id == "" || name == "" || filepath.Base(name) != name {
		http.Error(w, "params", http.StatusBadRequest)
		return
	}
	path := filepath.Join(os.TempDir(), "cryptoagent", id, name)
	http.ServeFile(w, r, path)
}
