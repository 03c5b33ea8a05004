package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/media"
)

// Extractor derives a thumbnail and perceptual hash from an upload.
type Extractor interface {
	Extract(ctx context.Context, src []byte, mediaType media.Type) ([]byte, string, error)
}

// Enqueuer dispatches an asynchronous pipeline job. Satisfied by
// *hls.Dispatcher.
type Enqueuer interface {
	Enqueue(mediaID uuid.UUID, sourceURL string)
}

// MediaService implements record creation and retrieval. Creation blocks on
// thumbnail and hash extraction; for video records it additionally enqueues
// one pipeline job once the record is persisted.
type MediaService struct {
	records   media.Repository
	extractor Extractor
	enqueuer  Enqueuer
	mediaRoot string
	mediaHost string
	logger    *zap.Logger
}

// NewMediaService wires the service.
func NewMediaService(records media.Repository, extractor Extractor, enqueuer Enqueuer, mediaRoot, mediaHost string, logger *zap.Logger) *MediaService {
	return &MediaService{
		records:   records,
		extractor: extractor,
		enqueuer:  enqueuer,
		mediaRoot: mediaRoot,
		mediaHost: mediaHost,
		logger:    logger.Named("media-service"),
	}
}

// Create validates the upload, derives thumbnail and hash synchronously,
// stores the files, persists the record and, for videos, enqueues a pipeline
// job. The record is not persisted if extraction fails.
func (s *MediaService) Create(ctx context.Context, mediaType media.Type, filename string, fileBytes []byte) (*media.Media, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: %q", media.ErrUnsupportedType, mediaType)
	}

	thumb, phash, err := s.extractor.Extract(ctx, fileBytes, mediaType)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	filePath, err := s.storeFile(fmt.Sprintf("%s%s", id, fileExt(filename, mediaType)), fileBytes)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	thumbPath, err := s.storeFile(fmt.Sprintf("thumb_%s.jpg", id), thumb)
	if err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	m := &media.Media{
		ID:            id,
		Type:          mediaType,
		FilePath:      filePath,
		ThumbnailPath: thumbPath,
		PHash:         phash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.records.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	if m.IsVideo() && m.FilePath != "" {
		sourceURL := s.fullSourceURL(m.FilePath)
		s.logger.Info("enqueueing pipeline job",
			zap.String("media_id", id.String()),
			zap.String("source_url", sourceURL))
		s.enqueuer.Enqueue(id, sourceURL)
	}

	return m, nil
}

// Get returns one record.
func (s *MediaService) Get(ctx context.Context, id uuid.UUID) (*media.Media, error) {
	return s.records.Get(ctx, id)
}

// List returns records, newest first.
func (s *MediaService) List(ctx context.Context, limit, offset int) ([]*media.Media, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.records.List(ctx, limit, offset)
}

// storeFile writes bytes under the media root and returns the serving path.
func (s *MediaService) storeFile(name string, data []byte) (string, error) {
	dir := filepath.Join(s.mediaRoot, "media_center")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return "/media/media_center/" + name, nil
}

// fullSourceURL resolves a record file path to an absolute URL, prefixing
// the configured media host for relative paths.
func (s *MediaService) fullSourceURL(filePath string) string {
	if strings.HasPrefix(filePath, "/") {
		return s.mediaHost + filePath
	}
	return filePath
}

func fileExt(filename string, mediaType media.Type) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	if mediaType == media.TypeVideo {
		return ".mp4"
	}
	return ".jpg"
}
