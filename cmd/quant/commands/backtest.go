package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/momentum/internal/backtest"
	"github.com/wonny/aegis/momentum/internal/brain"
	"github.com/wonny/aegis/momentum/internal/execution"
)

// backtestCmd replays stored sessions through the paper broker
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "백테스트 실행",
	Long: `저장된 과거 세션을 하루씩 재생합니다.
매 세션: 종가로 평가 → 사이클 → 종가 체결 → 미체결 취소.
비용은 strategy YAML의 backtest 섹션 (주당 수수료, 슬리피지 bps).

Flags:
  --from        시작 날짜 (YYYY-MM-DD, 필수)
  --to          종료 날짜 (YYYY-MM-DD, 기본: 오늘)
  --out         결과 JSON 파일 (선택)

Example:
  go run ./cmd/quant backtest --from 2023-01-01 --to 2023-12-31
  go run ./cmd/quant backtest --from 2023-01-01 --out result.json`,
	RunE: runBacktest,
}

var (
	backtestFrom string
	backtestTo   string
	backtestOut  string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	backtestCmd.Flags().StringVar(&backtestOut, "out", "", "결과 JSON 파일")

	backtestCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Momentum Backtest Engine ===")

	startDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if backtestTo != "" {
		endDate, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}
	if endDate.Before(startDate) {
		return fmt.Errorf("--to %s is before --from %s", backtestTo, backtestFrom)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newDataApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.sessions(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	costs := a.strategy.Backtest
	broker := execution.NewPaperBroker(costs.InitialCapital, execution.PaperCosts{
		CommissionPerShare: costs.CommissionPerShare,
		SlippageBps:        costs.SlippageBps,
	}, a.log)

	orchestrator, err := brain.NewOrchestrator(a.strategy, brain.Deps{
		Market:       a.market,
		Fundamentals: a.fundamentals,
		Broker:       broker,
	}, a.log)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	engine := backtest.NewEngine(orchestrator, backtest.NewSimulator(a.market, broker, a.log), a.log)
	result, err := engine.Run(ctx, sessions, brain.NewState(a.strategy))
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printBacktest(result)

	if backtestOut != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := os.WriteFile(backtestOut, data, 0o644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Result written to %s", backtestOut))
	}
	return nil
}

func printBacktest(r *backtest.Result) {
	PrintDoubleSeparator()
	fmt.Printf("  Backtest %s ~ %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	PrintSeparator()
	PrintKeyValue("Sessions", fmt.Sprint(r.TradingDays), 16)
	PrintKeyValue("Rebalances", fmt.Sprint(r.RebalanceCount), 16)
	PrintKeyValue("Initial", fmt.Sprintf("%.2f", r.InitialCapital), 16)
	PrintKeyValue("Final", fmt.Sprintf("%.2f", r.FinalEquity), 16)
	PrintKeyValue("Total return", fmt.Sprintf("%.2f%%", r.TotalReturn*100), 16)
	PrintKeyValue("Annualized", fmt.Sprintf("%.2f%%", r.AnnualizedReturn*100), 16)
	PrintKeyValue("Volatility", fmt.Sprintf("%.2f%%", r.Volatility*100), 16)
	PrintKeyValue("Sharpe", fmt.Sprintf("%.2f", r.SharpeRatio), 16)
	PrintKeyValue("Sortino", fmt.Sprintf("%.2f", r.SortinoRatio), 16)
	PrintKeyValue("Max drawdown", fmt.Sprintf("%.2f%%", r.MaxDrawdown*100), 16)
	PrintKeyValue("VaR 95%", fmt.Sprintf("%.2f%% (CVaR %.2f%%)", r.HistoricalVaR.VaR*100, r.HistoricalVaR.CVaR*100), 16)
	PrintSeparator()
	PrintKeyValue("Trades", fmt.Sprint(r.Stats.TotalTrades), 16)
	PrintKeyValue("Commission", fmt.Sprintf("%.2f", r.Stats.TotalCommission), 16)
	PrintKeyValue("Slippage", fmt.Sprintf("%.2f", r.Stats.TotalSlippage), 16)
	PrintDoubleSeparator()
}
