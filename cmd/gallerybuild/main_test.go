package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/gallerybuild/pkg/gallery"
)

func setFlags(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		require.NoError(t, flag.Set(k, v))
	}
}

func TestRunReturnsBuildError(t *testing.T) {
	dir := t.TempDir()
	setFlags(t, map[string]string{
		"root":        filepath.Join(dir, "public"),
		"descriptors": filepath.Join(dir, "missing.json"),
		"manifest":    filepath.Join(dir, "out", "gallery.json"),
	})

	err := run(context.Background())
	require.ErrorIs(t, err, gallery.ErrMalformedInput)
	assert.Contains(t, err.Error(), "build failed")

	_, err = os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunEmptyGallery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photos.json"), []byte("[]"), 0o644))
	setFlags(t, map[string]string{
		"root":        filepath.Join(dir, "public"),
		"descriptors": filepath.Join(dir, "photos.json"),
		"manifest":    filepath.Join(dir, "out", "gallery.json"),
	})

	require.NoError(t, run(context.Background()))

	m, err := gallery.ReadManifest(filepath.Join(dir, "out", "gallery.json"))
	require.NoError(t, err)
	assert.Empty(t, m.Photos)
}
