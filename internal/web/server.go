// Package web exposes the backtester and trade history over a small JSON API.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"cryptoagent/internal/core"
	"cryptoagent/internal/history"
	"cryptoagent/internal/risk"
)

type Server struct {
	BotToken string
	Addr     string
	DevMode  bool // ослабляем проверку initData на локалке

	source   core.DataSource
	analyzer *history.Analyzer
	riskCfg  risk.Config

	srv *http.Server

	artMu sync.Mutex
	art   map[string]string // backtest id -> zip path
}

func NewServer(botToken, addr string, dev bool, source core.DataSource, analyzer *history.Analyzer, riskCfg risk.Config) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{
		BotToken: botToken,
		Addr:     addr,
		DevMode:  dev,
		source:   source,
		analyzer: analyzer,
		riskCfg:  riskCfg,
		art:      map[string]string{},
	}
}

func (s *Server) Serve() error {
	r := mux.NewRouter()
	r.HandleFunc("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/backtest", s.handleBacktest).Methods(http.MethodPost)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/api/file", s.handleFile).Methods(http.MethodGet)
	r.Use(s.authMiddleware)

	s.srv = &http.Server{Addr: s.Addr, Handler: r}
	log.Info().Str("addr", s.Addr).Bool("dev", s.DevMode).Msg("web: listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.DevMode || s.BotToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		// initData: заголовок X-TG-Init-Data или query ?initData=...
		initData := r.Header.Get("X-TG-Init-Data")
		if initData == "" {
			initData = r.URL.Query().Get("initData")
		}
		if !ValidateInitData(initData, s.BotToken) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	st, err := s.analyzer.Stats(time.Now(), days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
