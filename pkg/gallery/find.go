package gallery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Describer fills descriptor text from an image's embedded metadata.
type Describer interface {
	Describe(path string, d *Descriptor)
}

// ExifDescriber reads titles, descriptions and camera names with exiftool.
type ExifDescriber struct {
	et *exiftool.Exiftool
}

// NewExifDescriber returns a Describer backed by et.
func NewExifDescriber(et *exiftool.Exiftool) *ExifDescriber {
	return &ExifDescriber{et: et}
}

// Describe copies Headline, ImageDescription and Make/Model into d.
func (e *ExifDescriber) Describe(path string, d *Descriptor) {
	fi := e.et.ExtractMetadata(path)[0]
	if fi.Err != nil {
		klog.Warningf("extract fail for %q: %v", path, fi.Err)
		return
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	if s, err := fi.GetString("Headline"); err == nil {
		d.Title = strings.TrimSpace(s)
	}
	if s, err := fi.GetString("ImageDescription"); err == nil {
		d.Description = strings.TrimSpace(s)
	}

	mk, err := fi.GetString("Make")
	if err != nil {
		klog.V(1).Infof("unable to get make for %s: %v", path, err)
	}
	model, err := fi.GetString("Model")
	if err != nil {
		klog.V(1).Infof("unable to get model for %s: %v", path, err)
	}
	// Models usually repeat the make: "Canon" + "Canon EOS R5".
	if mk != "" && strings.HasPrefix(strings.ToLower(model), strings.ToLower(mk)) {
		mk = ""
	}
	d.ShotUsing = strings.TrimSpace(mk + " " + model)
}

// Discover returns a descriptor for every image beneath publicRoot/dir, in lexical order.
// Dotfiles and the thumbnail tree are skipped. d may be nil.
func Discover(publicRoot string, dir string, thumbDir string, d Describer) ([]Descriptor, error) {
	root := filepath.Join(publicRoot, filepath.FromSlash(dir))
	thumbRoot := filepath.Join(publicRoot, filepath.FromSlash(thumbDir))
	found := []Descriptor{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				if path == thumbRoot {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !imageExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			rel, err := filepath.Rel(publicRoot, path)
			if err != nil {
				return err
			}
			klog.V(1).Infof("found %s", path)

			desc := Descriptor{Src: NormalizeURLPath(filepath.ToSlash(rel))}
			if d != nil {
				d.Describe(path, &desc)
			}
			found = append(found, desc)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return found, nil
}
