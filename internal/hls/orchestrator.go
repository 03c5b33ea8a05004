package hls

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/media"
	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// DestPrefix returns the object-store key prefix for a media record's HLS
// package. The persisted playlist URL uses the same prefix, so re-running a
// job overwrites the same keys and yields the same URL.
func DestPrefix(mediaID uuid.UUID) string {
	return fmt.Sprintf("media/v1/video-files/%s", mediaID)
}

// PlaylistURL returns the public URL of the master playlist for a record.
func PlaylistURL(playlistBase string, mediaID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/master_playlist.m3u8", playlistBase, DestPrefix(mediaID))
}

// Orchestrator sequences one derivative-pipeline job:
// fetch -> encode ladder -> compose -> publish -> persist.
type Orchestrator struct {
	fetcher     pipeline.Fetcher
	encoder     pipeline.Encoder
	composer    pipeline.Composer
	publisher   pipeline.Publisher
	records     media.Repository
	ladder      []pipeline.RenditionProfile
	mediaRoot   string
	playlist    string
	parallelism int
	logger      *zap.Logger
}

// NewOrchestrator wires the pipeline components. parallelism bounds how many
// rendition encodes run concurrently; values below 1 run sequentially.
func NewOrchestrator(
	fetcher pipeline.Fetcher,
	encoder pipeline.Encoder,
	composer pipeline.Composer,
	publisher pipeline.Publisher,
	records media.Repository,
	ladder []pipeline.RenditionProfile,
	mediaRoot, playlistBase string,
	parallelism int,
	logger *zap.Logger,
) *Orchestrator {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Orchestrator{
		fetcher:     fetcher,
		encoder:     encoder,
		composer:    composer,
		publisher:   publisher,
		records:     records,
		ladder:      ladder,
		mediaRoot:   mediaRoot,
		playlist:    playlistBase,
		parallelism: parallelism,
		logger:      logger.Named("orchestrator"),
	}
}

// Run executes one job. A fetch failure aborts before any side effect; a
// failed rendition encode is recorded in the outcome and the job continues.
// Run is safe to invoke again for the same media id: it re-fetches,
// re-encodes and re-publishes, and persists the same playlist URL.
func (o *Orchestrator) Run(ctx context.Context, mediaID uuid.UUID, sourceURL string) (outcome *pipeline.Outcome, retErr error) {
	job := pipeline.NewJob(mediaID, sourceURL)
	log := o.logger.With(zap.String("media_id", mediaID.String()))

	sourceFile, err := o.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		job.State = pipeline.StateFailed
		log.Error("source fetch failed", zap.String("url", sourceURL), zap.Error(err))
		return nil, err
	}
	defer os.Remove(sourceFile)

	jobDir := filepath.Join(o.mediaRoot, "hls", mediaID.String())
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		job.State = pipeline.StateFailed
		return nil, fmt.Errorf("create job directory: %w", err)
	}
	// On success the publisher owns the directory (it deletes after upload,
	// keeps it in local-only mode); any later failure releases it here.
	defer func() {
		if retErr == nil {
			return
		}
		if err := os.RemoveAll(jobDir); err != nil {
			log.Warn("job directory cleanup failed", zap.Error(err))
		}
	}()

	job.State = pipeline.StateEncoding
	results := o.encodeLadder(ctx, sourceFile, jobDir, log)

	job.State = pipeline.StateComposing
	if _, err := o.composer.Compose(jobDir, o.ladder); err != nil {
		return nil, err
	}

	job.State = pipeline.StatePublishing
	if err := o.publisher.Publish(ctx, jobDir, DestPrefix(mediaID)); err != nil {
		return nil, err
	}

	job.State = pipeline.StatePersisting
	playlistURL := PlaylistURL(o.playlist, mediaID)
	if err := o.records.SetPlaylist(ctx, mediaID, playlistURL); err != nil {
		return nil, fmt.Errorf("persist playlist url: %w", err)
	}

	job.State = pipeline.StateDone
	outcome = pipeline.NewOutcome(mediaID, playlistURL, results)
	log.Info("pipeline finished",
		zap.String("status", string(outcome.Status)),
		zap.Strings("failed_renditions", outcome.FailedLabels),
		zap.String("playlist", playlistURL))

	return outcome, nil
}

// encodeLadder runs every profile on a bounded worker pool and waits for all
// outcomes. Results keep ladder order; a failed rendition never aborts the
// rest.
func (o *Orchestrator) encodeLadder(ctx context.Context, sourceFile, jobDir string, log *zap.Logger) []pipeline.RenditionResult {
	results := make([]pipeline.RenditionResult, len(o.ladder))

	sem := make(chan struct{}, o.parallelism)
	var wg sync.WaitGroup
	for i, profile := range o.ladder {
		wg.Add(1)
		go func(i int, profile pipeline.RenditionProfile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = o.encoder.Encode(ctx, sourceFile, jobDir, profile)
			if results[i].Err != nil {
				log.Warn("rendition encode failed",
					zap.String("label", profile.Label),
					zap.Error(results[i].Err))
			}
		}(i, profile)
	}
	wg.Wait()

	return results
}
