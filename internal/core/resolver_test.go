package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T, raw map[string]any) *JobRecord {
	t.Helper()
	job, err := Normalize(raw)
	require.NoError(t, err)
	return job
}

func TestResolve(t *testing.T) {
	t.Run("Should resolve both minimum key spellings identically", func(t *testing.T) {
		primary := &ShopConfig{Policies: map[string]any{"bleed_min_in": 0.125, "safety_min_in": 0.25}}
		alias := &ShopConfig{Policies: map[string]any{"min_bleed_in": 0.125, "min_safety_in": 0.25}}

		a := Resolve(newJob(t, map[string]any{"product": "Flyer"}), primary)
		b := Resolve(newJob(t, map[string]any{"product": "Flyer"}), alias)

		assert.Equal(t, *a.Bleed, *b.Bleed)
		assert.Equal(t, *a.Safety, *b.Safety)
		assert.Equal(t, a.Adjustments(), b.Adjustments())
		assert.Equal(t, 0.125, *a.Bleed)
		assert.Equal(t, 0.25, *a.Safety)
	})

	t.Run("Should prefer the primary spelling when both are present", func(t *testing.T) {
		cfg := &ShopConfig{Policies: map[string]any{"bleed_min_in": 0.25, "min_bleed_in": 0.5}}
		job := Resolve(newJob(t, map[string]any{}), cfg)
		assert.Equal(t, 0.25, *job.Bleed)
	})

	t.Run("Should fall back to default minimums", func(t *testing.T) {
		job := Resolve(newJob(t, map[string]any{}), nil)
		assert.Equal(t, DefaultMinBleedIn, *job.Bleed)
		assert.Equal(t, DefaultMinSafetyIn, *job.Safety)
	})

	t.Run("Should record adjustments only for changed fields", func(t *testing.T) {
		cfg := &ShopConfig{Policies: map[string]any{"bleed_min_in": 0.125, "safety_min_in": 0.25}}
		job := Resolve(newJob(t, map[string]any{"bleed": 0.25}), cfg)

		adj := job.Adjustments()
		assert.NotContains(t, adj, "bleed_in")
		assert.Equal(t, Adjustment{From: 0.125, To: 0.25, Min: 0.25}, adj["safety_in"])
		assert.Equal(t, 0.25, *job.Bleed)
	})

	t.Run("Should never go below the minimum", func(t *testing.T) {
		cfg := &ShopConfig{Policies: map[string]any{"bleed_min_in": "0.125", "safety_min_in": 0.1875}}
		for _, bleed := range []any{nil, 0, 0.0625, 0.125, 0.5, "abc"} {
			job := Resolve(newJob(t, map[string]any{"bleed": bleed, "safety": bleed}), cfg)
			assert.GreaterOrEqual(t, *job.Bleed, 0.125, "bleed=%v", bleed)
			assert.GreaterOrEqual(t, *job.Safety, 0.1875, "safety=%v", bleed)
		}
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		cfg := &ShopConfig{Policies: map[string]any{"min_bleed_in": 0.125, "min_safety_in": 0.25}}
		job := Resolve(newJob(t, map[string]any{"bleed": 0.0625}), cfg)
		bleed, safety := *job.Bleed, *job.Safety
		adj := job.Adjustments()

		again := Resolve(job, cfg)
		assert.Equal(t, bleed, *again.Bleed)
		assert.Equal(t, safety, *again.Safety)
		assert.Equal(t, adj, again.Adjustments())
		assert.Len(t, again.Adjustments(), 2)
	})

	t.Run("Should apply preset values only when the job has none", func(t *testing.T) {
		cfg := &ShopConfig{Products: map[string]any{
			"trifold": map[string]any{"bleed_in": 0.25, "safety_in": 0.375},
		}}
		job := Resolve(newJob(t, map[string]any{"product": "Tri-Fold Brochure"}), cfg)
		assert.Equal(t, ProductTrifold, job.Special[SpecialProductType])
		assert.Equal(t, cfg.Products["trifold"], job.Special[SpecialProductPreset])
		assert.Equal(t, 0.25, *job.Bleed)
		assert.Equal(t, 0.375, *job.Safety)
		assert.Empty(t, job.Adjustments())

		again := Resolve(job, cfg)
		assert.Equal(t, 0.375, *again.Safety)

		explicitSafety := Resolve(newJob(t, map[string]any{"product": "trifold", "safety": 0.125}), cfg)
		assert.Equal(t, DefaultMinSafetyIn, *explicitSafety.Safety)
		assert.Contains(t, explicitSafety.Adjustments(), "safety_in")

		explicit := Resolve(newJob(t, map[string]any{"product": "trifold", "bleed": 0.125}), cfg)
		assert.Equal(t, 0.125, *explicit.Bleed)

		zero := Resolve(newJob(t, map[string]any{"product": "trifold", "bleed": 0}), cfg)
		assert.Equal(t, 0.25, *zero.Bleed)
	})

	t.Run("Should attach the first matching stock rule without overwriting", func(t *testing.T) {
		cfg := &ShopConfig{Stocks: []StockRule{
			{Match: "Gloss Text", Params: map[string]any{"fold_in_offset_in": 0.0625, "score": true}},
			{Match: "100# Gloss Text", Params: map[string]any{"fold_in_offset_in": 0.125}},
		}}
		job := Resolve(newJob(t, map[string]any{
			"stock":   "100# gloss text",
			"special": map[string]any{"score": false},
		}), cfg)
		assert.Equal(t, "Gloss Text", job.Special[SpecialStockRule])
		assert.Equal(t, 0.0625, job.Special["fold_in_offset_in"])
		assert.Equal(t, false, job.Special["score"])
	})

	t.Run("Should map the machine to a press key", func(t *testing.T) {
		cfg := &ShopConfig{Presses: map[string]any{
			"hp_latex_570": map[string]any{"max_width_in": 64},
			"indigo_7900":  map[string]any{"max_width_in": 13},
		}}
		job := Resolve(newJob(t, map[string]any{"special": map[string]any{"machine": "HP Latex 570"}}), cfg)
		assert.Equal(t, "hp_latex_570", job.Special[SpecialPress])

		fuzzy := Resolve(newJob(t, map[string]any{"special": map[string]any{"machine": "Indigo"}}), cfg)
		assert.Equal(t, "indigo_7900", fuzzy.Special[SpecialPress])

		unknown := Resolve(newJob(t, map[string]any{"special": map[string]any{"machine": "Xerox"}}), cfg)
		assert.NotContains(t, unknown.Special, SpecialPress)
	})

	t.Run("Should attach the shop config by reference", func(t *testing.T) {
		cfg := &ShopConfig{Policies: map[string]any{}}
		job := Resolve(newJob(t, map[string]any{}), cfg)
		assert.Same(t, cfg, job.Shop())
	})
}

func TestCanonicalProduct(t *testing.T) {
	cases := map[string]string{
		"Business Cards":     ProductBusinessCard,
		"business_card":      ProductBusinessCard,
		"Tri-fold brochure":  ProductTrifold,
		"Z-Fold menu":        ProductTrifold,
		"EDDM Postcard":      ProductPostcard,
		"Saddle Stitch Book": ProductBooklet,
		"13oz Vinyl Banner":  ProductBanner,
		"Sell Sheet":         ProductFlyer,
		"Roll Labels":        ProductLabel,
		"Envelope":           "",
		"":                   "",
	}
	for in, want := range cases {
		t.Run("Should map "+in, func(t *testing.T) {
			assert.Equal(t, want, CanonicalProduct(in))
		})
	}
}

func TestMatchStockRule(t *testing.T) {
	rules := []StockRule{{Match: "14pt C2S"}, {Match: "Vinyl"}}

	t.Run("Should match by containment in either direction", func(t *testing.T) {
		r, ok := MatchStockRule(rules, "14pt c2s aqueous")
		require.True(t, ok)
		assert.Equal(t, "14pt C2S", r.Match)

		r, ok = MatchStockRule(rules, "vin")
		require.True(t, ok)
		assert.Equal(t, "Vinyl", r.Match)
	})

	t.Run("Should not match blank stock", func(t *testing.T) {
		_, ok := MatchStockRule(rules, "  ")
		assert.False(t, ok)
	})
}
