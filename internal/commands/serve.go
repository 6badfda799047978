package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cryptoagent/internal/advisor"
	"cryptoagent/internal/cfg"
	"cryptoagent/internal/core"
	"cryptoagent/internal/data"
	"cryptoagent/internal/engine"
	"cryptoagent/internal/history"
	"cryptoagent/internal/notify"
	"cryptoagent/internal/risk"
	"cryptoagent/internal/state"
	"cryptoagent/internal/web"
)

var serveFeed string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live/paper engine with Telegram bot and web API",
	Long: `Start the paper trading loop: a candle feed drives the indicator/signal/
risk/ledger chain, fills are mirrored into the durable trade history, and the
Telegram bot plus the web API expose status and reports.

Feeds:
  rest    poll Bybit spot klines on an interval
  random  seeded random walk (reproducible paper runs)

Examples:
  cryptoagent serve
  cryptoagent serve --feed rest
  cryptoagent serve --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFeed, "feed", "", "candle feed: rest | random (default from saved state)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	config := cfg.Load()
	log.Info().Str("symbol", config.Symbol).Str("tf", config.TF).Msg("cryptoagent starting")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tradeLog, err := data.NewTradeLog(config.TradesPath)
	if err != nil {
		return err
	}
	analyzer := history.NewAnalyzer(tradeLog)

	store := state.New(config.StatePath)
	saved, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("state load failed, using defaults")
	}
	riskCfg := config.Risk
	if saved.Risk != nil {
		riskCfg = *saved.Risk
	}
	riskMgr := risk.NewManager(riskCfg, analyzer)

	var adv core.Advisor
	if config.AIAPIKey != "" {
		adv = advisor.NewHTTPClient(config.AIBaseURL, config.AIAPIKey, config.AIModel)
		log.Info().Str("model", config.AIModel).Msg("AI advisor enabled")
	}

	var bot *notify.Bot
	eng := engine.New(engine.Opts{
		Symbol:   config.Symbol,
		TF:       config.TF,
		Equity:   config.PaperEquity,
		Risk:     riskMgr,
		Recorder: tradeLog,
		Advisor:  adv,
		Sink:     engine.PaperSink{},
		NotifyFunc: func(msg string) {
			if bot != nil {
				bot.Notify(msg)
			}
		},
	})
	bot = notify.NewBot(config.TgToken, eng, analyzer, store, riskCfg)

	feedType := serveFeed
	if feedType == "" {
		feedType = saved.Feed.Type
	}
	if feedType == "" {
		feedType = "random"
	}
	if err := store.Save(state.State{
		Feed: state.FeedState{Type: feedType, Symbol: config.Symbol, TF: config.TF},
		Risk: saved.Risk,
	}); err != nil {
		log.Warn().Err(err).Msg("state save failed")
	}

	pump := func(candles <-chan core.Candle) {
		for k := range candles {
			if err := eng.OnCandle(ctx, k); err != nil {
				log.Error().Err(err).Msg("engine candle")
			}
		}
	}
	switch feedType {
	case "rest":
		interval, err := time.ParseDuration(config.RestInterval)
		if err != nil || interval <= 0 {
			interval = 3 * time.Second
		}
		feed := data.NewRestFeed(config.Symbol, config.TF, interval)
		feed.Start(ctx)
		go pump(feed.Candles)
	default:
		feed := data.NewRandomFeed(config.Symbol, config.TF,
			time.Now().Add(-24*time.Hour), 64_000, 0.002, 42)
		feed.Start(ctx)
		go pump(feed.Candles)
	}
	log.Info().Str("feed", feedType).Msg("feed started")

	wsrv := web.NewServer(config.TgToken, config.WebAddr, config.DevMode,
		data.NewBybitSource(), analyzer, riskCfg)
	go func() {
		if err := wsrv.Serve(); err != nil {
			log.Error().Err(err).Msg("web server stopped")
		}
	}()
	defer wsrv.Stop()

	go func() {
		if err := bot.Run(ctx); err != nil {
			log.Error().Err(err).Msg("telegram bot stopped")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigs:
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown")
	cancel()
	return nil
}
