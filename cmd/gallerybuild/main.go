// gallerybuild refreshes gallery thumbnails and writes a JSON manifest describing them.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerybuild/pkg/gallery"
)

var (
	configPath  = flag.String("config", "", "Location of an optional TOML config file")
	root        = flag.String("root", "", "Location of the public asset directory")
	descriptors = flag.String("descriptors", "", "Location of the photo descriptor document")
	manifest    = flag.String("manifest", "", "Location to write the manifest to")
	width       = flag.Int("width", 0, "Maximum thumbnail width")
	quality     = flag.Int("quality", 0, "Thumbnail JPEG quality (1-100)")
	workers     = flag.Int("workers", 0, "Number of images to process in parallel")
	initDir     = flag.String("init", "", "Write a starter descriptor document for images under this public directory, then exit")
	listen      = flag.Bool("listen", false, "serve the public directory via HTTP after building")
	addr        = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := run(context.Background()); err != nil {
		klog.Exitf("%v", err)
	}
}

// run builds the gallery. Deferred cleanup finishes before main exits.
func run(ctx context.Context) error {
	c, err := gallery.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyFlags(c)

	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		klog.Warningf("exiftool unavailable, treating all images as upright: %v", err)
		et = nil
	} else {
		defer func() {
			if err := et.Close(); err != nil {
				klog.Errorf("failed to close exiftool: %v", err)
			}
		}()
	}

	if *initDir != "" {
		if err := discover(c, et, *initDir); err != nil {
			return fmt.Errorf("init failed: %w", err)
		}
		return nil
	}

	b := gallery.New(c, gallery.WithCodec(gallery.NewCodec(et)))
	if _, err := b.Build(ctx); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if *listen {
		return serve(c.PublicRoot, *addr)
	}
	return nil
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(c *gallery.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			c.PublicRoot = *root
		case "descriptors":
			c.Descriptors = *descriptors
		case "manifest":
			c.Manifest = *manifest
		case "width":
			c.Thumb.Width = *width
		case "quality":
			c.Thumb.Quality = *quality
		case "workers":
			c.Workers = *workers
		}
	})
}

func discover(c *gallery.Config, et *exiftool.Exiftool, dir string) error {
	var d gallery.Describer
	if et != nil {
		d = gallery.NewExifDescriber(et)
	}

	ds, err := gallery.Discover(c.PublicRoot, dir, c.ThumbDir, d)
	if err != nil {
		return err
	}

	klog.Infof("writing %d descriptors to %s", len(ds), c.Descriptors)
	return gallery.WriteDescriptors(c.Descriptors, ds)
}

// serve serves a static web directory via HTTP
func serve(path string, addr string) error {
	fs := http.FileServer(http.Dir(path))
	http.Handle("/", fs)

	klog.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}
	return nil
}
