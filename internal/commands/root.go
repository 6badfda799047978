// Package commands holds the CLI surface: backtest, serve, history.
package commands

import (
	"github.com/spf13/cobra"

	"cryptoagent/internal/logx"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "cryptoagent",
	Short: "Rule-based crypto trading agent: backtester, paper engine, Telegram surface",
	Long: `cryptoagent simulates and paper-trades a long-only rule-based strategy
(RSI + EMA trend + MACD momentum) with explicit risk limits.

Subcommands:
  backtest  run the strategy over historical candles and print a report
  serve     run the live/paper engine with Telegram bot and web API
  history   print aggregate statistics over the durable trade log`,
	Version: "1.0.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logx.Setup(logLevel)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
