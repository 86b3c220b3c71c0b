package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Variant is one sellable jersey model: a team in a color.
type Variant struct {
	ID          uuid.UUID
	Team        string
	Color       string
	ImageURL    string
	GalleryURLs []string
	VideoURL    string
	CreatedAt   time.Time
}
