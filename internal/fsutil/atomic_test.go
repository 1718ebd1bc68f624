package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"studyquest-server/internal/fsutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "user_stories", "alice.json")
		require.NoError(t, fsutil.WriteFileAtomic(path, []byte(`{"a":1}`)))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(raw))
	})

	t.Run("Replaces content and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "theme_keywords.json")
		require.NoError(t, fsutil.WriteFileAtomic(path, []byte("old")))
		require.NoError(t, fsutil.WriteFileAtomic(path, []byte("new")))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(raw))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
