package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/daltunay/perfumes/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWalker struct {
	slugs []string
	calls int
}

func (w *stubWalker) DiscoverIdentifiers(ctx context.Context) ([]string, error) {
	w.calls++
	return w.slugs, nil
}

func TestLoadSlugs(t *testing.T) {
	ctx := context.Background()

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "slugs.txt")
		require.NoError(t, export.WriteSlugsFile(path, []string{"ambroxan", "hedione"}))
		w := &stubWalker{slugs: []string{"other"}}

		slugs, err := loadSlugs(ctx, w, flags{slugsFile: path})
		require.NoError(t, err)
		assert.Equal(t, []string{"ambroxan", "hedione"}, slugs)
		assert.Zero(t, w.calls)
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "assets", "slugs.txt")
		w := &stubWalker{slugs: []string{"ambroxan"}}

		slugs, err := loadSlugs(ctx, w, flags{slugsFile: path})
		require.NoError(t, err)
		assert.Equal(t, []string{"ambroxan"}, slugs)
		assert.Equal(t, 1, w.calls)

		written, err := export.ReadSlugsFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"ambroxan"}, written)
	})

	t.Run("empty file is rediscovered and rewritten", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "slugs.txt")
		require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))
		w := &stubWalker{slugs: []string{"iso-e-super"}}

		slugs, err := loadSlugs(ctx, w, flags{slugsFile: path})
		require.NoError(t, err)
		assert.Equal(t, []string{"iso-e-super"}, slugs)
		assert.Equal(t, 1, w.calls)

		written, err := export.ReadSlugsFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"iso-e-super"}, written)
	})

	t.Run("empty catalog is never nil", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "slugs.txt")
		w := &stubWalker{}

		slugs, err := loadSlugs(ctx, w, flags{slugsFile: path, rediscover: true})
		require.NoError(t, err)
		assert.NotNil(t, slugs)
		assert.Empty(t, slugs)
	})
}
