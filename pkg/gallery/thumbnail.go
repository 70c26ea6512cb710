package gallery

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/transform"
	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

// Result describes a source image and its thumbnail.
type Result struct {
	Width       int
	Height      int
	ThumbWidth  int
	ThumbHeight int
	// Regenerated is true if the thumbnail was written during this call.
	Regenerated bool
}

// Generator writes thumbnails, skipping those the cache says are fresh.
type Generator struct {
	codec   Codec
	cache   *ThumbCache
	width   int
	quality int
}

// NewGenerator returns a Generator producing thumbnails at most t.Width wide.
func NewGenerator(codec Codec, cache *ThumbCache, t ThumbOpts) *Generator {
	return &Generator{codec: codec, cache: cache, width: t.Width, quality: t.Quality}
}

// ThumbBox returns the thumbnail dimensions for a source image. Thumbnails never upscale.
func ThumbBox(srcW int, srcH int, maxW int) (int, int) {
	w := min(maxW, srcW)
	h := int(math.Round(float64(srcH) * float64(w) / float64(srcW)))
	return w, max(1, h)
}

// Generate ensures that dst holds an up-to-date thumbnail of src.
// Dimensions are returned whether or not a new thumbnail was written.
func (g *Generator) Generate(src string, dst string) (Result, error) {
	md, err := g.codec.Metadata(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrUnreadableImage, src, err)
	}
	w, h := md.Upright()
	if w <= 0 || h <= 0 {
		return Result{}, fmt.Errorf("%w: %s: no dimensions (%dx%d)", ErrUnreadableImage, src, w, h)
	}

	r := Result{Width: w, Height: h}
	r.ThumbWidth, r.ThumbHeight = ThumbBox(w, h, g.width)

	v, err := g.cache.Lookup(src, dst)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrThumbnailWrite, dst, err)
	}
	if !v.Stale {
		klog.V(1).Infof("%s is fresh (source %s, thumb %s)", dst, v.SourceMtime, v.ThumbMtime)
		return r, nil
	}

	if v.ThumbMtime.IsZero() {
		klog.V(1).Infof("updating %s: does not exist", dst)
	} else {
		klog.Infof("updating %s: source newer", dst)
	}

	img, err := g.codec.Decode(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrUnreadableImage, src, err)
	}

	thumb := cover(orient(img, md.Orientation), r.ThumbWidth, r.ThumbHeight)
	if err := g.save(thumb, dst); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrThumbnailWrite, dst, err)
	}

	r.Regenerated = true
	return r, nil
}

// save encodes img to a temporary file beside path, then renames it into place.
func (g *Generator) save(img image.Image, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".thumb-*.jpg")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if err := g.codec.Encode(tmp, img, g.quality); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}

	if st, err := os.Stat(path); err == nil {
		klog.Infof("wrote %dx%d thumb %s (%s)", img.Bounds().Dx(), img.Bounds().Dy(), path, humanize.Bytes(uint64(st.Size())))
	}
	return nil
}

// orient applies an EXIF orientation so that the result is upright.
func orient(img image.Image, o int) image.Image {
	rotate := func(img image.Image, deg float64) image.Image {
		return transform.Rotate(img, deg, &transform.RotationOptions{ResizeBounds: true})
	}

	switch o {
	case 2:
		return transform.FlipH(img)
	case 3:
		return rotate(img, 180)
	case 4:
		return transform.FlipV(img)
	case 5:
		return transform.FlipH(rotate(img, 90))
	case 6:
		return rotate(img, 90)
	case 7:
		return transform.FlipH(rotate(img, 270))
	case 8:
		return rotate(img, 270)
	}
	return img
}

// cover scales img to fill a w x h box, then crops the overflow evenly from both sides.
// Images already smaller than the box are cropped but never enlarged.
func cover(img image.Image, w int, h int) image.Image {
	b := img.Bounds()
	scale := math.Max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	scale = math.Min(scale, 1)

	sw := max(w, int(math.Ceil(float64(b.Dx())*scale)))
	sh := max(h, int(math.Ceil(float64(b.Dy())*scale)))

	var scaled image.Image = img
	if sw != b.Dx() || sh != b.Dy() {
		scaled = transform.Resize(img, sw, sh, transform.Lanczos)
	}

	sb := scaled.Bounds()
	x0 := sb.Min.X + (sb.Dx()-w)/2
	y0 := sb.Min.Y + (sb.Dy()-h)/2
	return transform.Crop(scaled, image.Rect(x0, y0, x0+w, y0+h))
}
