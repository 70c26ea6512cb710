package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Stater reports file metadata. It is satisfied by the filesystem, or by fakes in tests.
type Stater interface {
	Stat(path string) (fs.FileInfo, error)
}

type osStater struct{}

func (osStater) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// OSStater stats the local filesystem.
var OSStater Stater = osStater{}

// IsStale reports whether a thumbnail must be regenerated. A zero thumbMtime means the
// thumbnail does not exist. Equal timestamps count as fresh, so a source rewritten within
// the filesystem's timestamp resolution of its thumbnail is not picked up.
func IsStale(sourceMtime time.Time, thumbMtime time.Time) bool {
	if thumbMtime.IsZero() {
		return true
	}
	return sourceMtime.After(thumbMtime)
}

// Verdict is the cache answer for one thumbnail.
type Verdict struct {
	Stale       bool
	SourceMtime time.Time
	// ThumbMtime is zero when no thumbnail exists.
	ThumbMtime time.Time
}

// ThumbCache treats existing thumbnails on disk as a cache keyed by thumbnail path.
type ThumbCache struct {
	st Stater
}

// NewThumbCache returns a cache backed by st.
func NewThumbCache(st Stater) *ThumbCache {
	if st == nil {
		st = OSStater
	}
	return &ThumbCache{st: st}
}

// Lookup reports whether the thumbnail at thumb is fresh with respect to src.
func (c *ThumbCache) Lookup(src string, thumb string) (Verdict, error) {
	sst, err := c.st.Stat(src)
	if err != nil {
		return Verdict{}, fmt.Errorf("stat source: %w", err)
	}
	v := Verdict{SourceMtime: sst.ModTime()}

	tst, err := c.st.Stat(thumb)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Verdict{}, fmt.Errorf("stat thumbnail: %w", err)
	case !tst.Mode().IsRegular():
		return Verdict{}, fmt.Errorf("thumbnail %s is not a regular file", thumb)
	default:
		v.ThumbMtime = tst.ModTime()
	}

	v.Stale = IsStale(v.SourceMtime, v.ThumbMtime)
	return v, nil
}
