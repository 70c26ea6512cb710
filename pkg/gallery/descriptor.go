package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// ReadDescriptors reads the input document, which must be a JSON array.
// Entries are returned undecoded so that Validate can report per-index problems.
func ReadDescriptors(path string) ([]any, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrMalformedInput, path, err)
	}
	return ParseDescriptors(bs)
}

// ParseDescriptors parses a descriptor document.
func ParseDescriptors(bs []byte) ([]any, error) {
	var doc any
	if err := json.Unmarshal(bs, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	entries, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrMalformedInput, doc)
	}
	return entries, nil
}

// Validate checks descriptor i, returning it with trimmed fields and the source's filesystem path.
func Validate(i int, raw any, publicRoot string, st Stater) (Descriptor, string, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Descriptor{}, "", fmt.Errorf("%w: descriptor %d: expected an object, got %T", ErrInvalidDescriptor, i, raw)
	}

	src, ok := fields["src"].(string)
	if !ok || strings.TrimSpace(src) == "" {
		return Descriptor{}, "", fmt.Errorf("%w: descriptor %d: src is required", ErrInvalidDescriptor, i)
	}

	d := Descriptor{
		Src:         NormalizeURLPath(src),
		Title:       text(fields, "title"),
		ShotUsing:   text(fields, "shotUsing"),
		Location:    text(fields, "location"),
		Description: text(fields, "description"),
	}

	path, err := FilesystemPath(d.Src, publicRoot)
	if err != nil {
		return Descriptor{}, "", fmt.Errorf("%w: descriptor %d: %w", ErrInvalidDescriptor, i, err)
	}

	fi, err := st.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.Mode().IsRegular()) {
		return Descriptor{}, "", fmt.Errorf("%w: descriptor %d: %s", ErrMissingSource, i, path)
	}
	if err != nil {
		return Descriptor{}, "", fmt.Errorf("%w: descriptor %d: stat %s: %w", ErrMissingSource, i, path, err)
	}

	klog.V(2).Infof("descriptor %d: %+v -> %s", i, d, path)
	return d, path, nil
}

// text returns a trimmed string field, or "" if absent or not a string.
func text(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

// WriteDescriptors writes ds as an input document, refusing to replace an existing one.
func WriteDescriptors(path string, ds []Descriptor) error {
	if ds == nil {
		ds = []Descriptor{}
	}
	bs, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	bs = append(bs, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if _, err := f.Write(bs); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}
