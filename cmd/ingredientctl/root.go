package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"skincare-ingredients/internal/app"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/pkg/common"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "ingredientctl",
	Short:        "Operator tool for the skincare ingredient service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return common.InitLogger(logLevel, "")
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		common.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// withApp 載入設定並建立完整服務，執行結束後釋放資源
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(a)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
