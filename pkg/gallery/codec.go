package gallery

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/barasher/go-exiftool"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

// Metadata is what a codec knows about an image without decoding its pixels.
type Metadata struct {
	Width  int
	Height int
	// Orientation is the EXIF orientation, 1 through 8. 1 is upright.
	Orientation int
}

// Upright returns the dimensions of the image once its orientation has been applied.
func (m Metadata) Upright() (int, int) {
	if m.Orientation >= 5 && m.Orientation <= 8 {
		return m.Height, m.Width
	}
	return m.Width, m.Height
}

// Codec decodes and encodes images.
type Codec interface {
	Metadata(path string) (Metadata, error)
	Decode(path string) (image.Image, error)
	Encode(w io.Writer, img image.Image, quality int) error
}

// printedOrientation maps exiftool's human-readable orientations, used when
// print conversion is left enabled.
var printedOrientation = map[string]int{
	"Horizontal (normal)":                 1,
	"Mirror horizontal":                   2,
	"Rotate 180":                          3,
	"Mirror vertical":                     4,
	"Mirror horizontal and rotate 270 CW": 5,
	"Rotate 90 CW":                        6,
	"Mirror horizontal and rotate 90 CW":  7,
	"Rotate 270 CW":                       8,
}

// ImageCodec decodes JPEG, PNG and WebP and encodes JPEG. If an exiftool is
// provided, it is used to read orientation; otherwise every image is treated as upright.
type ImageCodec struct {
	et *exiftool.Exiftool
}

// NewCodec returns an ImageCodec. et may be nil.
func NewCodec(et *exiftool.Exiftool) *ImageCodec {
	return &ImageCodec{et: et}
}

// Metadata reads image dimensions and orientation.
func (c *ImageCodec) Metadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, format, err := image.DecodeConfig(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("decode config: %w", err)
	}
	klog.V(2).Infof("%s: %s %dx%d", path, format, ic.Width, ic.Height)

	return Metadata{Width: ic.Width, Height: ic.Height, Orientation: c.orientation(path)}, nil
}

func (c *ImageCodec) orientation(path string) int {
	if c.et == nil {
		return 1
	}

	fi := c.et.ExtractMetadata(path)[0]
	if fi.Err != nil {
		klog.Warningf("unable to extract metadata for %s: %v", path, fi.Err)
		return 1
	}

	o, err := fi.GetInt("Orientation")
	if err == nil && o >= 1 && o <= 8 {
		return int(o)
	}

	s, err := fi.GetString("Orientation")
	if err != nil {
		klog.V(1).Infof("no orientation for %s", path)
		return 1
	}
	if o, ok := printedOrientation[s]; ok {
		return o
	}
	klog.Warningf("unknown orientation %q for %s", s, path)
	return 1
}

// Decode reads the full image at path.
func (c *ImageCodec) Decode(path string) (image.Image, error) {
	return imgio.Open(path)
}

// Encode writes img as a JPEG.
func (c *ImageCodec) Encode(w io.Writer, img image.Image, quality int) error {
	return imgio.JPEGEncoder(quality)(w, img)
}
