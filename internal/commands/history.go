package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoagent/internal/cfg"
	"cryptoagent/internal/data"
	"cryptoagent/internal/history"
)

var (
	histDays  int
	histLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print aggregate statistics over the durable trade log",
	Long: `Print the trade history report: totals, per-symbol weighted-average P&L
and the most recent records.

Examples:
  cryptoagent history
  cryptoagent history --days 30 --limit 20`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&histDays, "days", 7, "period in days")
	historyCmd.Flags().IntVar(&histLimit, "limit", 10, "recent records to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	config := cfg.Load()
	tradeLog, err := data.NewTradeLog(config.TradesPath)
	if err != nil {
		return err
	}
	rep, err := history.NewAnalyzer(tradeLog).Report(time.Now(), histDays, histLimit)
	if err != nil {
		return err
	}
	fmt.Println(rep)
	return nil
}
