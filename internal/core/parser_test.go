package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadShopConfig(t *testing.T) {
	t.Run("Should load all four files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, PoliciesFile, `
bleed_min_in: 0.125
min_safety_in: 0.25
max_ink_coverage: 300
min_text_pt:
  body_k_only: 7
`)
		writeFile(t, dir, ProductsFile, `
products:
  trifold: {bleed_in: 0.125, min_ppi: 300}
  banner: {allow_rgb: true}
`)
		writeFile(t, dir, PressesFile, `
roll_printers:
  hp_latex_570: {max_width_in: 64, icc_profile: "HP Latex Vinyl.icc"}
sheetfed_presses:
  heidelberg_sm52: {max_width_in: 20, category: offset}
`)
		writeFile(t, dir, StocksFile, `
- match: 100# Gloss Text
  fold_in_offset_in: 0.0625
- name: 13oz Vinyl
  grommet_spacing_in: 24
`)
		cfg, err := LoadShopConfig(dir)
		require.NoError(t, err)

		v, ok := cfg.PolicyFloat("min_text_pt.body_k_only")
		require.True(t, ok)
		assert.Equal(t, 7.0, v)
		assert.Equal(t, 0.25, MinimumSafety(cfg))

		assert.Equal(t, true, cfg.Product("banner")["allow_rgb"])
		assert.Equal(t, []string{"heidelberg_sm52", "hp_latex_570"}, cfg.PressKeys())
		assert.True(t, cfg.HasCategory("hp_latex_570", "roll"))
		assert.Equal(t, []string{"offset", "sheetfed"}, cfg.Categories["heidelberg_sm52"])
		assert.Equal(t, []string{"hp_latex_570"}, cfg.PressesIn("roll", "flatbed"))

		require.Len(t, cfg.Stocks, 2)
		assert.Equal(t, "100# Gloss Text", cfg.Stocks[0].Match)
		assert.Equal(t, 0.0625, cfg.Stocks[0].Params["fold_in_offset_in"])
		assert.Equal(t, "13oz Vinyl", cfg.Stocks[1].Match)
	})

	t.Run("Should treat missing files as empty sections", func(t *testing.T) {
		cfg, err := LoadShopConfig(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, cfg.Policies)
		assert.Empty(t, cfg.Products)
		assert.Empty(t, cfg.Presses)
		assert.Empty(t, cfg.Stocks)
		assert.Equal(t, DefaultMinBleedIn, MinimumBleed(cfg))
	})

	t.Run("Should read an ungrouped press file as plain presses", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, PressesFile, "indigo_7900: {max_width_in: 13}\n")
		cfg, err := LoadShopConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"indigo_7900"}, cfg.PressKeys())
		assert.Empty(t, cfg.Categories["indigo_7900"])
	})

	t.Run("Should keep stock mapping order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, StocksFile, "stocks:\n  zeta: {a: 1}\n  alpha: {a: 2}\n")
		cfg, err := LoadShopConfig(dir)
		require.NoError(t, err)
		require.Len(t, cfg.Stocks, 2)
		assert.Equal(t, "zeta", cfg.Stocks[0].Match)
		assert.Equal(t, "alpha", cfg.Stocks[1].Match)
	})

	t.Run("Should reject products that are not nested mappings", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ProductsFile, "trifold: 0.125\n")
		_, err := LoadShopConfig(dir)
		var cfe *ConfigFormatError
		require.ErrorAs(t, err, &cfe)
		assert.Equal(t, dir, cfe.Source)
		assert.Equal(t, "products.trifold", cfe.Key)
	})

	t.Run("Should reject a policies file that is a list", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, PoliciesFile, "- a\n- b\n")
		_, err := LoadShopConfig(dir)
		assert.ErrorIs(t, err, ErrConfigFormat)
	})

	t.Run("Should surface YAML syntax errors", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, PoliciesFile, "a: [1, 2\n")
		_, err := LoadShopConfig(dir)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConfigFormat)
	})
}

func TestParseShopConfig(t *testing.T) {
	t.Run("Should parse a single document", func(t *testing.T) {
		cfg, err := ParseShopConfig([]byte(`
policies: {allow_rgb: false}
presses:
  presses:
    indigo_7900: {max_width_in: 13}
stocks:
  - {match: Vinyl, grommet_spacing_in: 24}
`))
		require.NoError(t, err)
		v, set := cfg.PolicyBool("allow_rgb")
		assert.True(t, set)
		assert.False(t, v)
		assert.Contains(t, cfg.Presses, "indigo_7900")
		assert.Equal(t, "Vinyl", cfg.Stocks[0].Match)
	})

	t.Run("Should accept an empty document", func(t *testing.T) {
		cfg, err := ParseShopConfig(nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.Presses)
	})

	t.Run("Should reject a stock list entry without a name", func(t *testing.T) {
		_, err := ParseShopConfig([]byte("stocks:\n  - {grommet_spacing_in: 24}\n"))
		assert.ErrorIs(t, err, ErrConfigFormat)
	})
}

func TestShopConfig_MatchPress(t *testing.T) {
	cfg := &ShopConfig{Presses: map[string]any{"hp_latex_570": map[string]any{}, "hp_latex_800": map[string]any{}}}

	t.Run("Should prefer an exact key", func(t *testing.T) {
		key, ok := cfg.MatchPress("HP-Latex 800")
		require.True(t, ok)
		assert.Equal(t, "hp_latex_800", key)
	})
	t.Run("Should break containment ties by sorted key", func(t *testing.T) {
		key, ok := cfg.MatchPress("hp latex")
		require.True(t, ok)
		assert.Equal(t, "hp_latex_570", key)
	})
	t.Run("Should report no match", func(t *testing.T) {
		_, ok := cfg.MatchPress("")
		assert.False(t, ok)
	})
}
