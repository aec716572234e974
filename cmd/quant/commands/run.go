package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/scheduler/jobs"
)

// runCmd runs one cycle now
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "한 세션 사이클 즉시 실행",
	Long: `S0 → S1 → S2 → S4 → S5 → S6 한 사이클을 지금 실행합니다.
새 프로세스의 첫 사이클은 date rule과 무관하게 항상 리밸런싱합니다.

Flags:
  --date    세션 날짜 (YYYY-MM-DD, 기본: 거래소 시간대의 오늘)

Example:
  go run ./cmd/quant run
  go run ./cmd/quant run --date 2024-01-15`,
	RunE: runCycle,
}

var runDate string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDate, "date", "", "세션 날짜 (YYYY-MM-DD)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	session := jobs.SessionDate(time.Now(), a.strategy.Location())
	if runDate != "" {
		session, err = time.Parse("2006-01-02", runDate)
		if err != nil {
			return fmt.Errorf("invalid date format: %w", err)
		}
	}

	report, err := a.runner().Cycle(ctx, session, a.state)
	if err != nil {
		return fmt.Errorf("cycle: %w", err)
	}

	printReport(report)
	return nil
}

func printReport(report *contracts.CycleReport) {
	PrintDoubleSeparator()
	fmt.Printf("  Cycle %s\n", report.RunID)
	PrintSeparator()
	PrintKeyValue("Session", report.Date.Format("2006-01-02"), 12)
	PrintKeyValue("Mode", string(report.Mode), 12)
	PrintKeyValue("Config", shortHash(report.ConfigHash), 12)

	if !report.Rebalanced {
		PrintSeparator()
		PrintInfo("date rule: no rebalance this session")
		return
	}

	PrintKeyValue("Evaluated", fmt.Sprint(report.Evaluated), 12)
	PrintKeyValue("Eligible", fmt.Sprint(report.Eligible), 12)
	PrintKeyValue("Longs", joinSecurities(report.Selection.Longs), 12)
	PrintKeyValue("Shorts", joinSecurities(report.Selection.Shorts), 12)
	PrintSeparator()

	widths := []int{10, 10, 10}
	PrintTableHeader([]string{"Symbol", "Side", "Weight"}, widths)
	for _, t := range report.Targets {
		PrintTableRow([]string{string(t.Security), string(t.Side), fmt.Sprintf("%+.4f", t.Weight)}, widths)
	}
	PrintSeparator()

	PrintKeyValue("Emitted", fmt.Sprint(len(report.Emitted)), 12)
	if len(report.Deferred) > 0 {
		PrintWarning(fmt.Sprintf("deferred (open orders): %s", joinSecurities(report.Deferred)))
	}
	if len(report.Untradeable) > 0 {
		PrintWarning(fmt.Sprintf("untradeable: %s", joinSecurities(report.Untradeable)))
	}
	PrintSuccess(fmt.Sprintf("cycle finished in %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
}

func joinSecurities(secs []contracts.Security) string {
	if len(secs) == 0 {
		return "-"
	}
	parts := make([]string, len(secs))
	for i, s := range secs {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// signalContext is canceled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
