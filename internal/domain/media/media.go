package media

import (
	"time"

	"github.com/google/uuid"
)

// Type represents the kind of media a record holds.
type Type string

const (
	TypePhoto Type = "photo"
	TypeVideo Type = "video"
)

// Valid reports whether the type is one of the supported media types.
func (t Type) Valid() bool {
	return t == TypePhoto || t == TypeVideo
}

// Media is a stored media record. ThumbnailPath and PHash are set together
// during record creation; HLSPlaylist is only ever populated for video
// records, after the derivative pipeline has published a package.
type Media struct {
	ID            uuid.UUID
	Type          Type
	FilePath      string
	ThumbnailPath string
	HLSPlaylist   string
	PHash         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsVideo reports whether the record should go through the HLS pipeline.
func (m *Media) IsVideo() bool {
	return m.Type == TypeVideo
}
