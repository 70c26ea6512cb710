package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeJPEG writes a w x h gradient JPEG to path and sets its mtime.
func writeJPEG(t *testing.T, path string, w int, h int, mtime time.Time) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 90}))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// touch creates a placeholder file with the given mtime.
func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func writeDescriptors(t *testing.T, path string, ds any) {
	t.Helper()
	bs, err := json.Marshal(ds)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bs, 0o644))
}

// testConfig returns a Config rooted in a fresh temp dir.
func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	c := DefaultConfig()
	c.PublicRoot = filepath.Join(dir, "public")
	c.Descriptors = filepath.Join(dir, "photos.json")
	c.Manifest = filepath.Join(dir, "src", "gallery.json")
	c.Workers = 4
	require.NoError(t, os.MkdirAll(c.PublicRoot, 0o755))
	return c
}

var past = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeCodec serves canned metadata and counts encodes.
type fakeCodec struct {
	mu      sync.Mutex
	md      map[string]Metadata
	delay   map[string]time.Duration
	encoded []string
	failEnc bool
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{md: map[string]Metadata{}, delay: map[string]time.Duration{}}
}

func (f *fakeCodec) set(path string, md Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.md[path] = md
}

func (f *fakeCodec) Metadata(path string) (Metadata, error) {
	f.mu.Lock()
	md, ok := f.md[path]
	d := f.delay[path]
	f.mu.Unlock()

	time.Sleep(d)
	if !ok {
		return Metadata{}, fmt.Errorf("no metadata for %s", path)
	}
	return md, nil
}

func (f *fakeCodec) Decode(path string) (image.Image, error) {
	md, err := f.Metadata(path)
	if err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, md.Width, md.Height)), nil
}

func (f *fakeCodec) Encode(w io.Writer, img image.Image, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEnc {
		return errors.New("disk full")
	}
	f.encoded = append(f.encoded, img.Bounds().String())
	_, err := fmt.Fprintf(w, "%dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	return err
}

func (f *fakeCodec) encodes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.encoded)
}

// fakeFile is an fs.FileInfo with a settable mtime.
type fakeFile struct {
	name  string
	mtime time.Time
	dir   bool
}

func (f fakeFile) Name() string       { return f.name }
func (f fakeFile) Size() int64        { return 1 }
func (f fakeFile) ModTime() time.Time { return f.mtime }
func (f fakeFile) IsDir() bool        { return f.dir }
func (f fakeFile) Sys() any           { return nil }
func (f fakeFile) Mode() os.FileMode {
	if f.dir {
		return os.ModeDir | 0o755
	}
	return 0o644
}

// fakeStater serves file info from a map; missing paths do not exist.
type fakeStater map[string]fakeFile

func (s fakeStater) Stat(path string) (os.FileInfo, error) {
	f, ok := s[path]
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	return f, nil
}
