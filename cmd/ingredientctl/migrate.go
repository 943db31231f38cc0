package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/infrastructure/store"
)

var migratePrint bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the cache tables",
	Long: `Applies the embedded schema for chemistry_cache and explanation_cache.
The statements are idempotent and safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "print the schema instead of applying it")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migratePrint {
		cmd.Print(store.Schema())
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	cmd.Println("Schema applied.")
	return nil
}
