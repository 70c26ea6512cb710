package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// State is a stage of a build.
type State int

const (
	Init State = iota
	Reading
	Processing
	Assembling
	Writing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Reading:
		return "reading"
	case Processing:
		return "processing"
	case Assembling:
		return "assembling"
	case Writing:
		return "writing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stats counts what a build did.
type Stats struct {
	Photos      int
	Regenerated int
	Cached      int
}

// Builder runs the gallery pipeline for one Config.
type Builder struct {
	c     *Config
	codec Codec
	st    Stater
	now   func() time.Time

	state State
	stats Stats
}

// Option customizes a Builder.
type Option func(*Builder)

// WithCodec sets the image codec. The default is NewCodec(nil).
func WithCodec(codec Codec) Option {
	return func(b *Builder) { b.codec = codec }
}

// WithStater sets how file timestamps and existence are read.
func WithStater(st Stater) Option {
	return func(b *Builder) { b.st = st }
}

// WithClock sets the clock used for the manifest's generatedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New returns a Builder for c.
func New(c *Config, opts ...Option) *Builder {
	b := &Builder{
		c:     c,
		codec: NewCodec(nil),
		st:    OSStater,
		now:   time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// State returns the stage the last build reached.
func (b *Builder) State() State {
	return b.state
}

// Stats returns counts from the last build.
func (b *Builder) Stats() Stats {
	return b.stats
}

// entry is a validated descriptor and its derived paths.
type entry struct {
	d         Descriptor
	srcPath   string
	id        string
	thumbSrc  string
	thumbPath string
}

// Build validates every descriptor, refreshes stale thumbnails and writes the manifest.
// The manifest is only written if every descriptor succeeds.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	b.state = Init
	b.stats = Stats{}

	m, err := b.build(ctx)
	if err != nil {
		klog.Errorf("build failed while %s: %v", b.state, err)
		b.state = Failed
		return nil, err
	}
	b.state = Done
	return m, nil
}

func (b *Builder) build(ctx context.Context) (*Manifest, error) {
	if err := b.c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	b.state = Reading
	klog.Infof("build: %s -> %s", b.c.Descriptors, b.c.Manifest)
	raw, err := ReadDescriptors(b.c.Descriptors)
	if err != nil {
		return nil, err
	}

	es, err := b.resolve(raw)
	if err != nil {
		return nil, err
	}

	// Nothing is created on disk until every descriptor has validated.
	unlock, err := b.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	b.state = Processing
	photos, err := b.process(ctx, es)
	if err != nil {
		return nil, err
	}

	b.state = Assembling
	m := &Manifest{
		GeneratedAt: b.now().UTC(),
		Thumb:       b.c.Thumb,
		Photos:      photos,
	}

	b.state = Writing
	if err := WriteManifest(b.c.Manifest, m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	klog.Infof("wrote %d photos to %s (%d regenerated, %d cached)", b.stats.Photos, b.c.Manifest, b.stats.Regenerated, b.stats.Cached)
	return m, nil
}

// lock takes the run lock beside the manifest, returning a func that releases it.
func (b *Builder) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(b.c.Manifest), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	lock := flock.New(b.c.Manifest + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrLocked, b.c.Manifest)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			klog.Warningf("unable to release lock: %v", err)
		}
	}, nil
}

// resolve validates descriptors in input order and derives their ids and thumbnail paths.
func (b *Builder) resolve(raw []any) ([]entry, error) {
	es := make([]entry, 0, len(raw))
	ids := map[string]int{}
	thumbs := map[string]int{}
	thumbRoot := filepath.Join(b.c.PublicRoot, filepath.FromSlash(b.c.ThumbDir))

	for i, r := range raw {
		d, srcPath, err := Validate(i, r, b.c.PublicRoot, b.st)
		if err != nil {
			return nil, err
		}

		// Every thumbnail lives under thumbRoot, so a source there could be overwritten by one.
		if within(thumbRoot, srcPath) {
			return nil, fmt.Errorf("%w: descriptor %d: source %s is inside the thumbnail dir %s", ErrCollision, i, srcPath, thumbRoot)
		}

		e := entry{
			d:        d,
			srcPath:  srcPath,
			id:       DeriveID(d.Src),
			thumbSrc: thumbnailURL(b.c.ThumbDir, d.Src),
		}
		e.thumbPath, err = FilesystemPath(e.thumbSrc, b.c.PublicRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: descriptor %d: %w", ErrInvalidDescriptor, i, err)
		}

		if j, ok := ids[e.id]; ok {
			return nil, fmt.Errorf("%w: descriptors %d and %d both derive id %q", ErrCollision, j, i, e.id)
		}
		if j, ok := thumbs[e.thumbSrc]; ok {
			return nil, fmt.Errorf("%w: descriptors %d and %d both derive thumbnail %s", ErrCollision, j, i, e.thumbSrc)
		}
		ids[e.id] = i
		thumbs[e.thumbSrc] = i

		es = append(es, e)
	}
	return es, nil
}

// process generates thumbnails on a bounded pool. Each worker writes only its own slot,
// so the result keeps input order.
func (b *Builder) process(ctx context.Context, es []entry) ([]Photo, error) {
	gen := NewGenerator(b.codec, NewThumbCache(b.st), b.c.Thumb)
	photos := make([]Photo, len(es))
	results := make([]Result, len(es))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.c.Workers)

	for i, e := range es {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			klog.V(1).Infof("processing descriptor %d: %s", i, e.d.Src)

			r, err := gen.Generate(e.srcPath, e.thumbPath)
			if err != nil {
				return fmt.Errorf("descriptor %d: %w", i, err)
			}
			results[i] = r
			photos[i] = newPhoto(e.d, e.id, e.thumbSrc, r)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.stats.Photos = len(photos)
	for _, r := range results {
		if r.Regenerated {
			b.stats.Regenerated++
		} else {
			b.stats.Cached++
		}
	}
	return photos, nil
}

// within reports whether path is dir or beneath it.
func within(dir string, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
