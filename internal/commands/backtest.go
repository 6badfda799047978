package commands

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cryptoagent/internal/backtest"
	"cryptoagent/internal/cfg"
	"cryptoagent/internal/core"
	"cryptoagent/internal/data"
	"cryptoagent/internal/export"
)

var (
	btSymbol  string
	btTF      string
	btDays    int
	btBalance float64
	btCSV     string
	btOut     string

	btStopLoss   float64
	btTakeProfit float64
	btSizePct    float64
	btFeePct     float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the strategy over historical candles",
	Long: `Run the rule-based strategy over historical candles and print a report.

Candles come from the Bybit spot kline API, or from a local CSV when --csv
is given. Risk flags left at zero fall back to the environment config.

Examples:
  cryptoagent backtest --symbol BTCUSDT --tf 5m --days 30
  cryptoagent backtest --csv data/btc_1h.csv --tf 1h --balance 500
  cryptoagent backtest --symbol ETHUSDT --days 90 --stop-loss 3 --out ./report`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "", "symbol, e.g. BTCUSDT (default from config)")
	backtestCmd.Flags().StringVar(&btTF, "tf", "", "timeframe: 1m 5m 15m 1h 4h 1d (default from config)")
	backtestCmd.Flags().IntVar(&btDays, "days", 30, "days of history to fetch")
	backtestCmd.Flags().Float64Var(&btBalance, "balance", 0, "initial balance in USDT (default from config)")
	backtestCmd.Flags().StringVar(&btCSV, "csv", "", "load candles from CSV instead of Bybit")
	backtestCmd.Flags().StringVar(&btOut, "out", "", "directory for trades.csv, equity.csv and equity.svg")
	backtestCmd.Flags().Float64Var(&btStopLoss, "stop-loss", 0, "stop-loss percent override")
	backtestCmd.Flags().Float64Var(&btTakeProfit, "take-profit", 0, "take-profit percent override")
	backtestCmd.Flags().Float64Var(&btSizePct, "size-pct", 0, "position size percent override")
	backtestCmd.Flags().Float64Var(&btFeePct, "fee-pct", 0, "fee percent per side override")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	config := cfg.Load()
	if btSymbol == "" {
		btSymbol = config.Symbol
	}
	if btTF == "" {
		btTF = config.TF
	}
	if btBalance <= 0 {
		btBalance = config.PaperEquity
	}
	riskCfg := config.Risk
	if btStopLoss > 0 {
		riskCfg.StopLossPct = btStopLoss
	}
	if btTakeProfit > 0 {
		riskCfg.TakeProfitPct = btTakeProfit
	}
	if btSizePct > 0 {
		riskCfg.PositionSizePct = btSizePct
	}
	if btFeePct > 0 {
		riskCfg.FeePct = btFeePct
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	var (
		candles []core.Candle
		err     error
	)
	if btCSV != "" {
		candles, err = data.LoadCandlesCSV(btCSV)
	} else {
		if btDays <= 0 {
			return errors.New("--days must be positive")
		}
		candles, err = data.NewBybitSource().Days(ctx, btSymbol, btTF, btDays)
	}
	if err != nil {
		return err
	}
	log.Info().Int("candles", len(candles)).Str("symbol", btSymbol).Str("tf", btTF).
		Msg("backtest: candles loaded")

	res, err := backtest.Run(candles, backtest.Params{
		Symbol:         btSymbol,
		TF:             btTF,
		InitialBalance: btBalance,
		Risk:           riskCfg,
	})
	if err != nil {
		return err
	}

	backtest.WriteReport(os.Stdout, res)

	if btOut != "" {
		bundle := export.Bundle{
			"trades.csv": export.TradesCSV(res.Trades),
			"equity.csv": export.EquityCSV(res.EquityCurve),
			"equity.svg": export.EquitySVG(res, 900, 300),
		}
		if err := bundle.WriteDir(btOut); err != nil {
			return err
		}
		log.Info().Str("dir", btOut).Msg("backtest: artifacts written")
	}
	return nil
}
