package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printssistant/internal/config"
	"printssistant/internal/core"
	"printssistant/internal/xmlmap"
)

func shopConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := filepath.Join("..", "..", "config")
	cfg, err := config.Load(map[string]any{
		"config_dir": dir,
		"model_path": filepath.Join(dir, "model.yml"),
	})
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(shopConfig(t), nil)
	require.NoError(t, err)

	t.Run("Should load the bundled shop config", func(t *testing.T) {
		assert.Contains(t, a.Shop.PressKeys(), "hp_latex_570")
		assert.True(t, a.Shop.HasCategory("hp_latex_570", "roll"))
		assert.NotEmpty(t, a.Checklist.Sections)
		assert.NotNil(t, a.Runner.Predictor)
	})

	t.Run("Should advise a banner on a roll printer", func(t *testing.T) {
		raw := map[string]any{"product": "13oz Scrim Vinyl Banner", "trim_size": map[string]any{"w_in": 72, "h_in": 36}, "stock": "13oz Scrim Vinyl"}
		advice, job, err := a.Runner.AdviseRaw(t.Context(), raw, "white ink spot", core.AdviseOptions{Machine: "HP Latex 570", DebugML: true})
		require.NoError(t, err)
		assert.Equal(t, []string{core.IntentDocSetup, core.IntentColorPolicy, core.IntentWideFormat, core.IntentSpot}, advice.Intents)
		assert.Equal(t, "hp_latex_570", job.Special.String(core.SpecialPress))
		// the global RGB block outranks the banner preset
		assert.Contains(t, advice.Tips, "RGB assets not allowed: convert to CMYK before placing.")
		assert.NotContains(t, advice.Tips, "RGB assets allowed; embed sRGB/Adobe RGB and let the RIP handle conversion.")
		assert.Contains(t, advice.Scripts, "illustrator_jsx_spot_white")
		assert.Equal(t, "banner", advice.Meta["ml_prediction"])
	})

	t.Run("Should parse a ticket with the bundled mapping", func(t *testing.T) {
		m, err := xmlmap.LoadMapping(a.Config.MappingPath)
		require.NoError(t, err)
		assert.Contains(t, m, "trim_size.w_in")
	})

	t.Run("Should fail on a bad model path", func(t *testing.T) {
		cfg := shopConfig(t)
		cfg.ModelPath = filepath.Join(t.TempDir(), "missing.yml")
		_, err := New(cfg, nil)
		assert.Error(t, err)
	})
}
