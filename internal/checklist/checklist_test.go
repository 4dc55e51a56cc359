package checklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printssistant/internal/core"
	"printssistant/pkg/utils"
)

const checklistYAML = `
sections:
  - name: Document
    items:
      - id: size
        label: "Artboard is {trim_size.w_in} x {trim_size.h_in} in"
      - label: "Bleed set to {bleed_in}″"
        default_checked: true
      - id: icc
        label: "Export with {shop.policies.icc_profile}"
        help: Shop default profile
  - name: Finishing
    items:
      - id: fold
        label: Score before folding {special.fold}
        show_if: special.product_type == 'trifold'
      - id: grommets
        label: Grommets every {special.grommet_spacing_in} in
        show_if: special.grommet_spacing_in
  - name: Wide
    items:
      - id: rip
        label: Send to RIP
        show_if: "shop.policies.wide_rip"
`

func resolved(t *testing.T, raw map[string]any, shop *core.ShopConfig) *core.JobRecord {
	t.Helper()
	job, err := core.Normalize(raw)
	require.NoError(t, err)
	return core.Resolve(job, shop)
}

func TestParse(t *testing.T) {
	t.Run("Should parse sections and items", func(t *testing.T) {
		cfg, err := Parse([]byte(checklistYAML), "checklists.yml")
		require.NoError(t, err)
		require.Len(t, cfg.Sections, 3)
		assert.Equal(t, "size", cfg.Sections[0].Items[0].ID)
		assert.True(t, cfg.Sections[0].Items[1].DefaultChecked)
		assert.Equal(t, "special.grommet_spacing_in", cfg.Sections[1].Items[1].ShowIf)
		assert.Equal(t, utils.HashString(checklistYAML), cfg.Hash)
	})

	t.Run("Should reject sections that are not a list", func(t *testing.T) {
		_, err := Parse([]byte("sections:\n  doc: {}\n"), "bad.yml")
		assert.ErrorIs(t, err, core.ErrConfigFormat)
	})

	t.Run("Should treat a missing file as empty", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
		require.NoError(t, err)
		assert.Empty(t, cfg.Sections)
	})

	t.Run("Should load from disk", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "checklists.yml")
		require.NoError(t, os.WriteFile(p, []byte(checklistYAML), 0o644))
		cfg, err := Load(p)
		require.NoError(t, err)
		assert.Len(t, cfg.Sections, 3)
	})
}

func TestRender(t *testing.T) {
	cfg, err := Parse([]byte(checklistYAML), "checklists.yml")
	require.NoError(t, err)
	shop := &core.ShopConfig{Policies: map[string]any{"icc_profile": "GRACoL2013"}}

	t.Run("Should fill placeholders and apply conditions", func(t *testing.T) {
		job := resolved(t, map[string]any{
			"product":   "Tri-fold brochure",
			"trim_size": map[string]any{"w_in": 11, "h_in": 8.5},
		}, shop)
		list := cfg.Render(job, nil)

		require.Len(t, list.Sections, 2)
		doc := list.Sections[0]
		assert.Equal(t, "Document", doc.Name)
		assert.Equal(t, "Artboard is 11 x 8.5 in", doc.Items[0].Label)
		assert.Equal(t, `Bleed set to 0.125"`, doc.Items[1].Label)
		assert.True(t, doc.Items[1].Checked)
		assert.Equal(t, utils.ShortHash("Bleed set to {bleed_in}″"), doc.Items[1].ID)
		assert.Equal(t, "Export with GRACoL2013", doc.Items[2].Label)
		assert.Equal(t, "Shop default profile", doc.Items[2].Help)

		fin := list.Sections[1]
		require.Len(t, fin.Items, 1)
		assert.Equal(t, "fold", fin.Items[0].ID)
		assert.Equal(t, "Score before folding -", fin.Items[0].Label)
		assert.Equal(t, 4, list.Total)
	})

	t.Run("Should show truthy paths", func(t *testing.T) {
		wideShop := &core.ShopConfig{Policies: map[string]any{"wide_rip": true}}
		job := resolved(t, map[string]any{"special": map[string]any{"grommet_spacing_in": 24}}, wideShop)
		list := cfg.Render(job, nil)
		var ids []string
		for _, s := range list.Sections {
			for _, it := range s.Items {
				ids = append(ids, it.ID)
			}
		}
		assert.Contains(t, ids, "grommets")
		assert.Contains(t, ids, "rip")
		assert.NotContains(t, ids, "fold")
	})

	t.Run("Should change the key with the tips", func(t *testing.T) {
		job := resolved(t, map[string]any{}, shop)
		a := cfg.Render(job, []string{"one"})
		b := cfg.Render(job, []string{"one"})
		c := cfg.Render(job, []string{"two"})
		assert.Equal(t, a.Key, b.Key)
		assert.NotEqual(t, a.Key, c.Key)
	})
}
