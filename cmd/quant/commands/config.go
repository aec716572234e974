package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/config"
)

// configCmd inspects the strategy YAML
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 검증/조회",
	Long: `strategy YAML을 검증하고 해시를 계산합니다.

Example:
  go run ./cmd/quant config validate --strategy config/strategy.yaml
  go run ./cmd/quant config hash
  go run ./cmd/quant config show`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "설정 검증 (오류 + 경고)",
		RunE:  runConfigValidate,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "설정 해시 출력",
		RunE:  runConfigHash,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "기본값이 채워진 최종 설정 출력",
		RunE:  runConfigShow,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configHashCmd)
	configCmd.AddCommand(configShowCmd)
}

// loadStrategy prefers --strategy, then STRATEGY_CONFIG
func loadStrategy() (*strategyconfig.Config, string, error) {
	path := strategyFile
	if path == "" {
		path = config.StrategyPath()
	}
	cfg, err := strategyconfig.Load(path)
	return cfg, path, err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadStrategy()
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%s is valid", path))
	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	return nil
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadStrategy()
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadStrategy()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
