package gallery

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultThumbDir is the URL subtree thumbnails mirror their sources under.
const DefaultThumbDir = "gallery/thumbs"

var (
	idUnsafe = regexp.MustCompile(`[^a-z0-9\-_]`)
	idDashes = regexp.MustCompile(`-+`)
)

// NormalizeURLPath returns p with forward slashes and a leading slash.
// An empty result means p was unusable.
func NormalizeURLPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// FilesystemPath maps a public URL path to a file beneath publicRoot.
func FilesystemPath(urlPath string, publicRoot string) (string, error) {
	u := NormalizeURLPath(urlPath)
	if u == "" {
		return "", fmt.Errorf("empty url path")
	}

	p := filepath.Join(publicRoot, filepath.FromSlash(strings.TrimPrefix(u, "/")))
	rel, err := filepath.Rel(publicRoot, p)
	if err != nil {
		return "", fmt.Errorf("rel: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s escapes %s", urlPath, publicRoot)
	}
	return p, nil
}

// ThumbnailURL returns the thumbnail URL for a source URL: /gallery/thumbs/<dir>/<name>.jpg.
func ThumbnailURL(sourceURL string) string {
	return thumbnailURL(DefaultThumbDir, sourceURL)
}

func thumbnailURL(thumbDir string, sourceURL string) string {
	u := NormalizeURLPath(sourceURL)
	if u == "" {
		return ""
	}
	base := path.Base(u)
	noExt := strings.TrimSuffix(base, path.Ext(base))
	if noExt == "" {
		noExt = base
	}
	return path.Join("/", thumbDir, path.Dir(u), noExt+".jpg")
}

// DeriveID returns a lowercase, URL-safe identifier for a source URL.
func DeriveID(src string) string {
	id := strings.ToLower(NormalizeURLPath(src))
	id = strings.NewReplacer("/", "-", ".", "-").Replace(id)
	id = idUnsafe.ReplaceAllString(id, "")
	id = idDashes.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}
