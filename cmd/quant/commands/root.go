package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	env          string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Momentum long/short - US equity ranking and rebalancing",
	Long: `Momentum long/short unified CLI

매 세션: S0 스냅샷 → S1 유니버스 → S2 시그널 → S4 랭킹/선정 → S5 배분 → S6 주문.
Modes: momentum, mean_reversion, reversal (strategy YAML의 schedule.mode).

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant run
  go run ./cmd/quant scheduler start
  go run ./cmd/quant backtest --from 2023-01-01 --to 2023-12-31
  go run ./cmd/quant config validate
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: $STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
