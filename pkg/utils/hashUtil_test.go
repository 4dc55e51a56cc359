package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortHash(t *testing.T) {
	t.Run("Should return 8 hex chars stable across calls", func(t *testing.T) {
		id := ShortHash("Set safety margins to 0.25 in; keep text and logos inside.")
		assert.Len(t, id, ShortIDLen)
		assert.Regexp(t, `^[0-9a-f]{8}$`, id)
		assert.Equal(t, id, ShortHash("Set safety margins to 0.25 in; keep text and logos inside."))
	})
	t.Run("Should ignore surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, ShortHash("tip"), ShortHash("  tip\n"))
	})
	t.Run("Should differ for different text", func(t *testing.T) {
		assert.NotEqual(t, ShortHash("a"), ShortHash("b"))
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("Should depend on part boundaries", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
		assert.Equal(t, Fingerprint("a", "b"), Fingerprint("a", "b"))
	})
}

func TestHashFile(t *testing.T) {
	t.Run("Should match HashString of the same content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guides.jsx")
		require.NoError(t, os.WriteFile(path, []byte("app.activeDocument;"), 0o644))
		got, err := HashFile(path)
		require.NoError(t, err)
		assert.Equal(t, HashString("app.activeDocument;"), got)
	})
	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := HashFile(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}
