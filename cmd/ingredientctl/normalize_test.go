package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"normalize", "Aqua", "Niacinamide (5%)", "Parfum"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), `"Aqua" -> "water"`)
	assert.Contains(t, out.String(), `"Niacinamide (5%)" -> "niacinamide" [knowledge]`)
	assert.Contains(t, out.String(), `"Parfum" -> "fragrance" [common]`)
}

func TestNormalizeList(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"normalize", "--list"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		normalizeList = false
	})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "aliases (")
	assert.Contains(t, out.String(), `"aqua" -> "water"`)
	assert.Contains(t, out.String(), "knowledge (")
	assert.Contains(t, out.String(), "\n  niacinamide\n")
}

func TestNormalizeRequiresNames(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"normalize"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	assert.Error(t, rootCmd.Execute())
}

func TestMigratePrintsSchema(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"migrate", "--print"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		migratePrint = false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "chemistry_cache")
	assert.Contains(t, out.String(), "explanation_cache")
}
