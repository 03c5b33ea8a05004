package media

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for media records.
type Repository interface {
	// Create persists a new record.
	Create(ctx context.Context, m *Media) error

	// Get finds a record by ID.
	Get(ctx context.Context, id uuid.UUID) (*Media, error)

	// List returns records, newest first.
	List(ctx context.Context, limit, offset int) ([]*Media, error)

	// Update persists changes to an existing record.
	Update(ctx context.Context, m *Media) error

	// SetPlaylist writes the HLS playlist URL onto an existing record.
	SetPlaylist(ctx context.Context, id uuid.UUID, playlistURL string) error
}
