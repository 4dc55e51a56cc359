package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printssistant/internal/core"
)

const modelYAML = `
version: "2024.1"
labels:
  - label: business_card
    keywords: [business card, bcard]
    long_edge_in: 3.5
    short_edge_in: 2
  - label: trifold
    keywords: [Tri-Fold, trifold, brochure]
    long_edge_in: 11
    short_edge_in: 8.5
  - label: banner
    keywords: [banner, vinyl]
    long_edge_in: 72
    short_edge_in: 36
  - label: booklet
    keywords: [booklet]
    long_edge_in: 11
    short_edge_in: 8.5
    min_pages: 8
`

func mustModel(t *testing.T) *Model {
	t.Helper()
	m, err := Parse([]byte(modelYAML))
	require.NoError(t, err)
	return m
}

func job(t *testing.T, raw map[string]any) *core.JobRecord {
	t.Helper()
	j, err := core.Normalize(raw)
	require.NoError(t, err)
	return j
}

func TestParse(t *testing.T) {
	t.Run("Should fill defaults and lower keywords", func(t *testing.T) {
		m := mustModel(t)
		assert.Equal(t, defaultKeywordWeight, m.KeywordWeight)
		assert.Equal(t, defaultTemperature, m.Temperature)
		assert.Equal(t, "tri-fold", m.Labels[1].Keywords[0])
	})

	t.Run("Should reject a model without labels", func(t *testing.T) {
		_, err := Parse([]byte("version: x\n"))
		assert.ErrorIs(t, err, core.ErrConfigFormat)
	})

	t.Run("Should reject a label without a name", func(t *testing.T) {
		_, err := Parse([]byte("labels:\n  - keywords: [x]\n"))
		assert.ErrorIs(t, err, core.ErrConfigFormat)
	})
}

func TestFeaturesOf(t *testing.T) {
	f := FeaturesOf(job(t, map[string]any{"product": "Flyer", "trim_size": map[string]any{"w_in": 8.5, "h_in": 11}, "pages": 2}), "rush")
	assert.Equal(t, Features{Title: "Flyer rush", W: 8.5, H: 11, Pages: 2, LongEdge: 11, ShortEdge: 8.5, Aspect: 1.2941}, f)
}

func TestPredict(t *testing.T) {
	m := mustModel(t)

	t.Run("Should pick the nearest size", func(t *testing.T) {
		p, ok := m.Predict(job(t, map[string]any{"product": "cards", "trim_size": map[string]any{"w_in": 3.5, "h_in": 2}}), "")
		require.True(t, ok)
		assert.Equal(t, "business_card", p.Label)
		assert.Greater(t, p.Confidence, 0.9)
	})

	t.Run("Should use keywords without a size", func(t *testing.T) {
		p, ok := m.Predict(job(t, map[string]any{"product": "Vinyl Banner", "pages": 8}), "")
		require.True(t, ok)
		assert.Equal(t, "banner", p.Label)
		// 2 keyword hits against three zero scores
		assert.InDelta(t, 0.9479, p.Confidence, 0.001)
	})

	t.Run("Should read keywords from the operator message", func(t *testing.T) {
		p, ok := m.Predict(job(t, map[string]any{"product": "Job 4411", "pages": 8}), "print on vinyl, banner stand")
		require.True(t, ok)
		assert.Equal(t, "banner", p.Label)
		assert.InDelta(t, 0.9479, p.Confidence, 0.001)

		_, ok = m.Predict(job(t, map[string]any{}), "banner please")
		assert.True(t, ok)
	})

	t.Run("Should penalize page counts outside the label range", func(t *testing.T) {
		p, ok := m.Predict(job(t, map[string]any{"trim_size": map[string]any{"w_in": 11, "h_in": 8.5}, "pages": 2}), "")
		require.True(t, ok)
		assert.Equal(t, "trifold", p.Label)
	})

	t.Run("Should abstain without features", func(t *testing.T) {
		_, ok := m.Predict(job(t, map[string]any{}), "")
		assert.False(t, ok)
		var nilModel *Model
		_, ok = nilModel.Predict(job(t, map[string]any{"product": "banner"}), "")
		assert.False(t, ok)
	})

	t.Run("Should feed the router", func(t *testing.T) {
		runner := core.NewRunner(nil, core.DefaultRouterConfig(), core.WithPredictor(m))
		advice, _, err := runner.AdviseRaw(t.Context(), map[string]any{"product": "Vinyl Banner"}, "", core.AdviseOptions{DebugML: true})
		require.NoError(t, err)
		assert.Contains(t, advice.Intents, core.IntentWideFormat)
		assert.Equal(t, "banner", advice.Meta["ml_prediction"])
	})
}
