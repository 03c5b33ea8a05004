package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenmedia/mediacenter/internal/domain/media"
)

// mediaRecord is the persistence model for media records.
type mediaRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type          string    `gorm:"type:varchar(10);not null;index"`
	FilePath      string    `gorm:"not null"`
	ThumbnailPath string
	HLSPlaylist   string `gorm:"type:varchar(2048)"`
	PHash         string `gorm:"type:varchar(64);index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (mediaRecord) TableName() string { return "media_records" }

func toRecord(m *media.Media) *mediaRecord {
	return &mediaRecord{
		ID:            m.ID,
		Type:          string(m.Type),
		FilePath:      m.FilePath,
		ThumbnailPath: m.ThumbnailPath,
		HLSPlaylist:   m.HLSPlaylist,
		PHash:         m.PHash,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *mediaRecord) toDomain() *media.Media {
	return &media.Media{
		ID:            r.ID,
		Type:          media.Type(r.Type),
		FilePath:      r.FilePath,
		ThumbnailPath: r.ThumbnailPath,
		HLSPlaylist:   r.HLSPlaylist,
		PHash:         r.PHash,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// MediaRepository is a GORM-backed media.Repository.
type MediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository creates a repository over db.
func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, m *media.Media) error {
	return r.db.WithContext(ctx).Create(toRecord(m)).Error
}

func (r *MediaRepository) Get(ctx context.Context, id uuid.UUID) (*media.Media, error) {
	var rec mediaRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, media.ErrNotFound
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]*media.Media, error) {
	var recs []mediaRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]*media.Media, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (r *MediaRepository) Update(ctx context.Context, m *media.Media) error {
	result := r.db.WithContext(ctx).
		Model(&mediaRecord{}).
		Where("id = ?", m.ID).
		Updates(toRecord(m))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return media.ErrNotFound
	}
	return nil
}

func (r *MediaRepository) SetPlaylist(ctx context.Context, id uuid.UUID, playlistURL string) error {
	result := r.db.WithContext(ctx).
		Model(&mediaRecord{}).
		Where("id = ?", id).
		Update("hls_playlist", playlistURL)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return media.ErrNotFound
	}
	return nil
}
