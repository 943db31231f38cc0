package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skincare-ingredients/internal/app"
)

var resolveForce bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [names...]",
	Short: "Resolve ingredient labels to chemical identities",
	Long: `Runs the resolution pipeline against the configured cache and PubChem.
Common ingredients are answered locally unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveForce, "force", false, "query the chemistry database even for common ingredients")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		results, err := a.Chemistry.Resolve(cmd.Context(), args, resolveForce)
		if err != nil {
			return fmt.Errorf("resolve failed: %w", err)
		}
		return printJSON(cmd, results)
	})
}
