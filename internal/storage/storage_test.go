package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printssistant/internal/core"
	"printssistant/pkg/utils"
)

func TestSaveScripts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	st := NewOutputStorage(dir)

	saved, err := st.SaveScripts(map[string]string{
		"illustrator_jsx_fold_guides": "// fold\n",
		"illustrator_jsx":             "// artboard\n",
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	t.Run("Should write files in name order", func(t *testing.T) {
		assert.Equal(t, "illustrator_jsx", saved[0].Name)
		assert.Equal(t, filepath.Join(dir, "illustrator_jsx.jsx"), saved[0].Path)
		data, err := os.ReadFile(saved[1].Path)
		require.NoError(t, err)
		assert.Equal(t, "// fold\n", string(data))
	})

	t.Run("Should record checksums", func(t *testing.T) {
		assert.Equal(t, utils.HashString("// artboard\n"), saved[0].Checksum)
	})

	t.Run("Should sanitize names", func(t *testing.T) {
		path, err := st.SaveScript("../evil name!", "x")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "evilname.jsx"), path)
		path, err = st.SaveScript("///", "x")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "script.jsx"), path)
	})
}

func TestSession(t *testing.T) {
	job, err := core.Normalize(map[string]any{"product": "Postcard", "trim_size": map[string]any{"w_in": 6, "h_in": 4}})
	require.NoError(t, err)
	core.Resolve(job, &core.ShopConfig{})
	advice := &core.Advice{Intents: []string{core.IntentDocSetup}, Tips: []string{"a tip"}, TipIDs: []string{utils.ShortHash("a tip")}}

	s := NewSession(job, "rush", advice)

	t.Run("Should fill the snapshot", func(t *testing.T) {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, SessionVersion, s.Version)
		assert.Equal(t, []string{core.IntentDocSetup}, s.Intents)
		assert.NotContains(t, s.JobSpec.Special, core.SpecialShop)
		assert.Contains(t, s.TipsChecked, utils.ShortHash("a tip"))
	})

	t.Run("Should round trip through disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions", "job.json")
		require.NoError(t, SaveSession(path, s))
		got, err := LoadSession(path)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, "rush", got.Message)
		require.NotNil(t, got.JobSpec.TrimSize)
		assert.Equal(t, 6.0, got.JobSpec.TrimSize.W)
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := LoadSession(filepath.Join(t.TempDir(), "none.json"))
		assert.Error(t, err)
	})
}
