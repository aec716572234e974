package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/momentum/internal/s0_data"
	"github.com/wonny/aegis/momentum/pkg/config"
	"github.com/wonny/aegis/momentum/pkg/database"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// dbCmd groups database maintenance
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL 관리",
	Long: `데이터베이스 연결 확인, 스키마 생성, CSV 가격 적재.

Example:
  go run ./cmd/quant db check
  go run ./cmd/quant db migrate
  go run ./cmd/quant db import --dir data`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "연결 테스트 + 풀 통계",
		RunE:  runDBCheck,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "스키마 생성 (idempotent)",
		RunE:  runDBMigrate,
	}

	dbImportCmd = &cobra.Command{
		Use:   "import",
		Short: "CSV 디렉토리를 daily_prices/fundamentals로 적재",
		RunE:  runDBImport,
	}

	dbImportDir string
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbImportCmd)

	dbImportCmd.Flags().StringVar(&dbImportDir, "dir", "", "CSV 디렉토리 (기본: $DATA_DIR)")
}

func openDB(ctx context.Context) (*config.Config, *database.DB, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)
	if cfg.Database.URL == "" {
		return nil, nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, log, nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	cfg, db, _, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	PrintKeyValue("Database URL", maskPassword(cfg.Database.URL), 14)

	status := db.HealthCheck(ctx)
	if !status.Healthy {
		PrintError(status.Error)
		return fmt.Errorf("health check failed: %s", status.Error)
	}

	PrintSuccess("Health check passed")
	PrintKeyValue("Response", status.ResponseTime.String(), 14)
	PrintKeyValue("Total conns", fmt.Sprint(status.TotalConns), 14)
	PrintKeyValue("Acquired", fmt.Sprint(status.AcquiredConns), 14)
	PrintKeyValue("Idle", fmt.Sprint(status.IdleConns), 14)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, db, _, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	PrintSuccess("Schema is up to date")
	return nil
}

func runDBImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, db, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	dir := dbImportDir
	if dir == "" {
		dir = cfg.DataDir
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	store, err := s0_data.NewCSVLoader(dir, log).Load()
	if err != nil {
		return err
	}

	n, err := s0_data.Import(ctx, store, s0_data.NewPriceRepository(db.Pool), s0_data.NewFundamentalRepository(db.Pool))
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Imported %d bars from %s", n, dir))
	return nil
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
