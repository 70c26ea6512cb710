package gallery

import (
	"time"
)

// Descriptor describes one source photo, as listed in the input document.
type Descriptor struct {
	Src         string `json:"src"`
	Title       string `json:"title"`
	ShotUsing   string `json:"shotUsing"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Photo is a resolved descriptor with its derived id, thumbnail path and dimensions.
type Photo struct {
	ID          string `json:"id"`
	Src         string `json:"src"`
	ThumbSrc    string `json:"thumbSrc"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ThumbWidth  int    `json:"thumbWidth"`
	ThumbHeight int    `json:"thumbHeight"`
	Title       string `json:"title"`
	ShotUsing   string `json:"shotUsing"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Manifest is the document produced by a build.
type Manifest struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Thumb       ThumbOpts `json:"thumb"`
	Photos      []Photo   `json:"photos"`
}

func newPhoto(d Descriptor, id string, thumbSrc string, r Result) Photo {
	return Photo{
		ID:          id,
		Src:         d.Src,
		ThumbSrc:    thumbSrc,
		Width:       r.Width,
		Height:      r.Height,
		ThumbWidth:  r.ThumbWidth,
		ThumbHeight: r.ThumbHeight,
		Title:       d.Title,
		ShotUsing:   d.ShotUsing,
		Location:    d.Location,
		Description: d.Description,
	}
}
