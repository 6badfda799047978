package cfg

import (
	"strings"

	"github.com/spf13/viper"

	"cryptoagent/internal/risk"
)

type Config struct {
	Symbol      string
	TF          string
	LogLevel    string
	PaperEquity float64
	TradesPath  string
	StatePath   string
	DataDir     string

	TgToken string
	WebAddr string
	DevMode bool

	RestInterval string

	// optional AI advisor; empty key disables it
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	Risk risk.Config
}

// Load reads .env plus the process environment. Every risk knob is an
// explicit value here — no global mutable config anywhere downstream.
func Load() Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	v.SetDefault("SYMBOL", "BTCUSDT")
	v.SetDefault("TF", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PAPER_EQUITY", 100.0)
	v.SetDefault("TRADES_PATH", "trades.csv")
	v.SetDefault("STATE_PATH", "state.json")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("WEB_ADDR", ":8080")
	v.SetDefault("DEV_MODE", false)
	v.SetDefault("REST_INTERVAL", "3s")

	v.SetDefault("AI_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("AI_MODEL", "deepseek/deepseek-chat")

	v.SetDefault("STOP_LOSS_PCT", 5.0)
	v.SetDefault("TAKE_PROFIT_PCT", 3.0)
	v.SetDefault("POSITION_SIZE_PCT", 5.0)
	v.SetDefault("MAX_DAILY_LOSS", 20.0)
	v.SetDefault("MIN_CONFIDENCE", 60.0)
	v.SetDefault("FEE_PCT", 0.1)
	v.SetDefault("MAX_TRADE_AMOUNT", 10.0)

	return Config{
		Symbol:       strings.ToUpper(v.GetString("SYMBOL")),
		TF:           v.GetString("TF"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		PaperEquity:  v.GetFloat64("PAPER_EQUITY"),
		TradesPath:   v.GetString("TRADES_PATH"),
		StatePath:    v.GetString("STATE_PATH"),
		DataDir:      v.GetString("DATA_DIR"),
		TgToken:      v.GetString("TG_TOKEN"),
		WebAddr:      v.GetString("WEB_ADDR"),
		DevMode:      v.GetBool("DEV_MODE"),
		RestInterval: v.GetString("REST_INTERVAL"),
		AIBaseURL:    v.GetString("AI_BASE_URL"),
		AIAPIKey:     v.GetString("AI_API_KEY"),
		AIModel:      v.GetString("AI_MODEL"),
		Risk: risk.Config{
			StopLossPct:     v.GetFloat64("STOP_LOSS_PCT"),
			TakeProfitPct:   v.GetFloat64("TAKE_PROFIT_PCT"),
			PositionSizePct: v.GetFloat64("POSITION_SIZE_PCT"),
			MaxDailyLoss:    v.GetFloat64("MAX_DAILY_LOSS"),
			MinConfidence:   v.GetFloat64("MIN_CONFIDENCE"),
			FeePct:          v.GetFloat64("FEE_PCT"),
			MaxTradeAmount:  v.GetFloat64("MAX_TRADE_AMOUNT"),
		},
	}
}
