package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skincare-ingredients/internal/app"
	"skincare-ingredients/internal/core/explain"
)

var explainCmd = &cobra.Command{
	Use:   "explain [names...]",
	Short: "Explain ingredient labels in plain language",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	items := make([]explain.Item, len(args))
	for i, name := range args {
		items[i] = explain.Item{Name: name}
	}
	return withApp(cmd.Context(), func(a *app.App) error {
		results, err := a.Explain.Explain(cmd.Context(), items)
		if err != nil {
			return fmt.Errorf("explain failed: %w", err)
		}
		return printJSON(cmd, results)
	})
}
