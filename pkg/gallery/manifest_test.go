package gallery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		GeneratedAt: time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC),
		Thumb:       ThumbOpts{Width: 900, Quality: 80, Format: ThumbFormat},
		Photos: []Photo{{
			ID:          "gallery-a-jpg",
			Src:         "/gallery/a.jpg",
			ThumbSrc:    "/gallery/thumbs/gallery/a.jpg",
			Width:       2000,
			Height:      1000,
			ThumbWidth:  900,
			ThumbHeight: 450,
			Title:       "A",
		}},
	}
}

func TestWriteManifestFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.json")
	require.NoError(t, WriteManifest(path, sampleManifest()))

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(bs)

	assert.True(t, strings.HasSuffix(s, "}\n"), "trailing newline")
	assert.Contains(t, s, `"generatedAt": "2026-02-15T10:00:00Z"`)
	assert.Contains(t, s, `"thumb": {
    "width": 900,
    "quality": 80,
    "format": "jpeg"
  }`)

	keys := []string{`"id"`, `"src"`, `"thumbSrc"`, `"width"`, `"height"`, `"thumbWidth"`, `"thumbHeight"`, `"title"`, `"shotUsing"`, `"location"`, `"description"`}
	photos := s[strings.Index(s, `"photos"`):]
	last := -1
	for _, k := range keys {
		i := strings.Index(photos, k)
		require.GreaterOrEqual(t, i, 0, "missing %s", k)
		assert.Greater(t, i, last, "%s out of order", k)
		last = i
	}
}

func TestWriteManifestReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallery.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"photos": ["stale", "entries", "from", "before"]}`), 0o644))

	m := sampleManifest()
	require.NoError(t, WriteManifest(path, m))

	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m.Photos, got.Photos)
	assert.True(t, m.GeneratedAt.Equal(got.GeneratedAt))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteManifestEmptyPhotos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gallery.json")
	m := sampleManifest()
	m.Photos = []Photo{}
	require.NoError(t, WriteManifest(path, m))

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"photos": []`)
}
