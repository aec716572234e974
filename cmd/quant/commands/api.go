package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/momentum/internal/api"
	"github.com/wonny/aegis/momentum/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다. --with-scheduler 이면 같은 프로세스에서 스케줄러도 실행합니다.

Endpoints:
  GET  /health                     - Health check
  GET  /api/selection/latest       - 최근 사이클 결과
  GET  /api/selection/history      - 사이클 이력 (?limit=20)
  GET  /api/config                 - 전략 설정 + 해시
  GET  /api/jobs                   - 작업 통계 (--with-scheduler)
  POST /api/jobs/{name}/run        - 작업 즉시 실행 (--with-scheduler)
  GET  /ws/cycles                  - 사이클 결과 WebSocket 스트림
  GET  /metrics                    - Prometheus (METRICS_ENABLED)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: $PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Momentum API Server ===")

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	stream := handlers.NewCycleStream(log)
	a.orchestrator.AddObserver(stream)

	h := api.Handlers{
		Selection: handlers.NewSelectionHandler(a.repository, log),
		Config:    handlers.NewConfigHandler(a.strategy, a.orchestrator.ConfigHash()),
		Stream:    stream,
	}
	if a.metrics != nil {
		h.Metrics = a.metrics.Handler()
	}

	if apiWithScheduler {
		sched, err := a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		h.Jobs = handlers.NewJobsHandler(sched, log)
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, log, api.NewRouter(h, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
