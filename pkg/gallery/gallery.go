// Package gallery builds thumbnails and a JSON manifest from a list of photo descriptors.
package gallery

import (
	"path/filepath"
	"runtime"
)

// ThumbFormat is the only thumbnail encoding produced.
const ThumbFormat = "jpeg"

// ThumbOpts are thumbnail options.
type ThumbOpts struct {
	Width   int    `toml:"width" json:"width"`
	Quality int    `toml:"quality" json:"quality"`
	Format  string `toml:"-" json:"format"`
}

// Config holds configuration for a gallery build.
type Config struct {
	// PublicRoot is the directory that public URL paths resolve against.
	PublicRoot string `toml:"public_root"`
	// Descriptors is the path to the input descriptor document.
	Descriptors string `toml:"descriptors"`
	// Manifest is where the output manifest is written.
	Manifest string `toml:"manifest"`
	// ThumbDir is the URL subtree thumbnails are written under.
	ThumbDir string    `toml:"thumb_dir"`
	Thumb    ThumbOpts `toml:"thumb"`
	Workers  int       `toml:"workers"`
}

// DefaultConfig returns a Config with the stock thumbnail policy.
func DefaultConfig() *Config {
	return &Config{
		PublicRoot:  "public",
		Descriptors: "photos.json",
		Manifest:    filepath.Join("src", "gallery.json"),
		ThumbDir:    "gallery/thumbs",
		Thumb: ThumbOpts{
			Width:   900,
			Quality: 80,
			Format:  ThumbFormat,
		},
		Workers: runtime.NumCPU(),
	}
}
