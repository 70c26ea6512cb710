package gallery

import "errors"

// Errors returned by a build. Every failure aborts the run; callers match them with errors.Is.
var (
	// ErrMalformedInput means the descriptor document is unreadable or not a JSON list.
	// A list entry that is not an object is an ErrInvalidDescriptor.
	ErrMalformedInput = errors.New("malformed descriptor document")
	// ErrInvalidDescriptor means a descriptor is missing its src.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrMissingSource means a descriptor points at a file that does not exist.
	ErrMissingSource = errors.New("missing source file")
	// ErrUnreadableImage means the codec could not determine image dimensions.
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrThumbnailWrite means a thumbnail could not be written to disk.
	ErrThumbnailWrite = errors.New("thumbnail write failure")
	// ErrCollision means two descriptors derive the same id or thumbnail path.
	ErrCollision = errors.New("derived path collision")
	// ErrLocked means another build holds the manifest lock.
	ErrLocked = errors.New("build already running")
)
