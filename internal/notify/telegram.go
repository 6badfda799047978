// Package notify is the Telegram surface: trade notifications plus a few
// read-only bot commands over the engine and trade history.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gobot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"cryptoagent/internal/engine"
	"cryptoagent/internal/history"
	"cryptoagent/internal/risk"
	"cryptoagent/internal/state"
)

type Bot struct {
	token    string
	eng      *engine.Engine
	analyzer *history.Analyzer
	store    *state.Store // optional; enables /risk overrides
	riskCfg  risk.Config

	mu     sync.Mutex
	api    *gobot.BotAPI
	chatID int64 // chat subscribed via /start; 0 = nobody yet
}

func NewBot(token string, eng *engine.Engine, analyzer *history.Analyzer, store *state.Store, riskCfg risk.Config) *Bot {
	return &Bot{token: token, eng: eng, analyzer: analyzer, store: store, riskCfg: riskCfg}
}

// Notify pushes a message to the subscribed chat. Safe to call before the
// bot is connected — it just drops the message then.
func (b *Bot) Notify(msg string) {
	b.mu.Lock()
	api, chatID := b.api, b.chatID
	b.mu.Unlock()
	if api == nil || chatID == 0 {
		return
	}
	if _, err := api.Send(gobot.NewMessage(chatID, msg)); err != nil {
		log.Error().Err(err).Msg("send tg msg")
	}
}

func (b *Bot) Run(ctx context.Context) error {
	if b.token == "" {
		log.Warn().Msg("TG token empty: bot disabled")
		return nil
	}
	api, err := gobot.NewBotAPI(b.token)
	if err != nil {
		return err
	}
	api.Debug = false
	b.mu.Lock()
	b.api = api
	b.mu.Unlock()
	log.Info().Str("@", api.Self.UserName).Msg("Telegram connected")

	u := gobot.NewUpdate(0)
	u.Timeout = 30

	updates := api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return nil
		case up := <-updates:
			if up.Message == nil {
				continue
			}
			chatID := up.Message.Chat.ID
			text := strings.TrimSpace(up.Message.Text)
			switch {
			case strings.HasPrefix(text, "/start"):
				b.mu.Lock()
				b.chatID = chatID
				b.mu.Unlock()
				b.reply(chatID, "Привет! Команды: /status, /report, /history [n], /risk [параметр значение]")
			case strings.HasPrefix(text, "/status"):
				b.reply(chatID, b.status())
			case strings.HasPrefix(text, "/report"):
				rep, err := b.analyzer.Report(time.Now(), 7, 10)
				if err != nil {
					b.reply(chatID, "report failed: "+err.Error())
					continue
				}
				b.reply(chatID, rep)
			case strings.HasPrefix(text, "/history"):
				n := 10
				if parts := strings.Fields(text); len(parts) >= 2 {
					if v, err := strconv.Atoi(parts[1]); err == nil {
						n = v
					}
				}
				rep, err := b.analyzer.Report(time.Now(), 30, n)
				if err != nil {
					b.reply(chatID, "history failed: "+err.Error())
					continue
				}
				b.reply(chatID, rep)
			case strings.HasPrefix(text, "/risk"):
				b.reply(chatID, b.riskCommand(strings.Fields(text)[1:]))
			default:
				b.reply(chatID, "Неизвестная команда. Попробуй /status")
			}
		}
	}
}

func (b *Bot) status() string {
	if pos, ok := b.eng.Position(); ok {
		return fmt.Sprintf("Cash: %.2f USDT\nPosition: %s %.6f @ %.2f (cost %.2f)",
			b.eng.Cash(), pos.Symbol, pos.Qty, pos.EntryPrice, pos.EntryAmount)
	}
	return fmt.Sprintf("Cash: %.2f USDT\nNo open position", b.eng.Cash())
}

// riskCommand shows the current risk parameters or persists an override.
// Overrides are written to the state file and picked up on restart.
func (b *Bot) riskCommand(args []string) string {
	if len(args) == 0 {
		c := b.riskCfg
		return fmt.Sprintf("Риск-параметры:\nstop_loss %.2f%%\ntake_profit %.2f%%\nsize_pct %.2f%%\nmax_daily_loss %.2f USDT\nmin_confidence %.0f\nfee_pct %.2f%%\nmax_trade %.2f USDT",
			c.StopLossPct, c.TakeProfitPct, c.PositionSizePct, c.MaxDailyLoss, c.MinConfidence, c.FeePct, c.MaxTradeAmount)
	}
	if b.store == nil {
		return "Переопределение риска недоступно: нет файла состояния"
	}
	if len(args) != 2 {
		return "Формат: /risk <параметр> <значение>"
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "Не число: " + args[1]
	}
	cfg := b.riskCfg
	switch args[0] {
	case "stop_loss":
		cfg.StopLossPct = v
	case "take_profit":
		cfg.TakeProfitPct = v
	case "size_pct":
		cfg.PositionSizePct = v
	case "max_daily_loss":
		cfg.MaxDailyLoss = v
	case "min_confidence":
		cfg.MinConfidence = v
	case "fee_pct":
		cfg.FeePct = v
	case "max_trade":
		cfg.MaxTradeAmount = v
	default:
		return "Неизвестный параметр: " + args[0]
	}
	st, err := b.store.Load()
	if err != nil {
		return "save failed: " + err.Error()
	}
	st.Risk = &cfg
	if err := b.store.Save(st); err != nil {
		return "save failed: " + err.Error()
	}
	b.riskCfg = cfg
	return fmt.Sprintf("Ок, %s = %s. Применится после перезапуска.", args[0], args[1])
}

func (b *Bot) reply(chatID int64, text string) {
	b.mu.Lock()
	api := b.api
	b.mu.Unlock()
	if api == nil {
		return
	}
	if _, err := api.Send(gobot.NewMessage(chatID, text)); err != nil {
		log.Error().Err(err).Msg("send tg msg")
	}
}
