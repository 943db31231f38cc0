package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"skincare-ingredients/internal/app"
	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/infrastructure/config"
)

var (
	normalizeLexiconDir string
	normalizeList       bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [names...]",
	Short: "Print canonical names for ingredient labels",
	Args: func(cmd *cobra.Command, args []string) error {
		if !normalizeList && len(args) == 0 {
			return errors.New("requires at least 1 name or --list")
		}
		return nil
	},
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeLexiconDir, "lexicon-dir", "", "directory with aliases.yaml, knowledge.yaml and common.yaml")
	normalizeCmd.Flags().BoolVar(&normalizeList, "list", false, "print the loaded alias table and knowledge base entries")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	lex, err := app.LoadLexicon(config.LexiconConfig{Dir: normalizeLexiconDir})
	if err != nil {
		return fmt.Errorf("failed to load lexicon: %w", err)
	}

	if normalizeList {
		printLexicon(cmd, lex)
	}

	for _, raw := range args {
		canonical := lex.Normalizer.Normalize(raw)
		flags := ""
		if lex.IsCommon(canonical) {
			flags = " [common]"
		}
		if _, ok := lex.Knowledge.Lookup(canonical); ok {
			flags += " [knowledge]"
		}
		cmd.Printf("%q -> %q%s\n", raw, canonical, flags)
	}
	return nil
}

// printLexicon 列出別名表與知識庫收錄的標準名稱
func printLexicon(cmd *cobra.Command, lex *ingredient.Lexicon) {
	aliases := lex.Normalizer.Aliases()
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Printf("aliases (%d):\n", len(keys))
	for _, k := range keys {
		cmd.Printf("  %q -> %q\n", k, aliases[k])
	}
	names := lex.Knowledge.Names()
	cmd.Printf("knowledge (%d):\n", len(names))
	for _, name := range names {
		cmd.Printf("  %s\n", name)
	}
}
