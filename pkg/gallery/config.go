package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads a TOML config file on top of DefaultConfig. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}

	bs, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.normalize()
	return c, nil
}

func (c *Config) normalize() {
	c.Thumb.Format = ThumbFormat
	c.ThumbDir = strings.Trim(strings.ReplaceAll(strings.TrimSpace(c.ThumbDir), `\`, "/"), "/")
	if c.Workers < 1 {
		c.Workers = 1
	}
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	c.normalize()
	switch {
	case c.PublicRoot == "":
		return errors.New("public root is required")
	case c.Descriptors == "":
		return errors.New("descriptor path is required")
	case c.Manifest == "":
		return errors.New("manifest path is required")
	case c.ThumbDir == "":
		return errors.New("thumbnail dir is required")
	case c.Thumb.Width < 1:
		return fmt.Errorf("thumbnail width must be positive, got %d", c.Thumb.Width)
	case c.Thumb.Quality < 1 || c.Thumb.Quality > 100:
		return fmt.Errorf("thumbnail quality must be within 1-100, got %d", c.Thumb.Quality)
	}
	return nil
}
