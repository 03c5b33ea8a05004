package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// State tracks how far a job has progressed. A job only exists for the
// duration of one orchestrator run; it is never persisted.
type State string

const (
	StateFetching   State = "fetching"
	StateEncoding   State = "encoding"
	StateComposing  State = "composing"
	StatePublishing State = "publishing"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Job identifies one derivative-pipeline run for a media record.
type Job struct {
	MediaID   uuid.UUID
	SourceURL string
	State     State
	StartedAt time.Time
}

// NewJob creates a job in its initial state.
func NewJob(mediaID uuid.UUID, sourceURL string) *Job {
	return &Job{
		MediaID:   mediaID,
		SourceURL: sourceURL,
		State:     StateFetching,
		StartedAt: time.Now().UTC(),
	}
}

// RenditionResult is the per-profile outcome of an encode attempt.
type RenditionResult struct {
	Profile  RenditionProfile
	Playlist string
	Err      error
}

// OutcomeStatus classifies the aggregate result of a job.
type OutcomeStatus string

const (
	OutcomeFull    OutcomeStatus = "full"
	OutcomePartial OutcomeStatus = "partial"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the aggregate result of one orchestrator run. A job can reach
// OutcomePartial when individual renditions fail but the package was still
// composed and published; FailedLabels names the renditions that did not
// make it.
type Outcome struct {
	MediaID      uuid.UUID
	Status       OutcomeStatus
	PlaylistURL  string
	Renditions   []RenditionResult
	FailedLabels []string
}

// NewOutcome derives the aggregate status from per-rendition results.
func NewOutcome(mediaID uuid.UUID, playlistURL string, results []RenditionResult) *Outcome {
	o := &Outcome{
		MediaID:     mediaID,
		Status:      OutcomeFull,
		PlaylistURL: playlistURL,
		Renditions:  results,
	}
	for _, r := range results {
		if r.Err != nil {
			o.FailedLabels = append(o.FailedLabels, r.Profile.Label)
		}
	}
	switch {
	case len(o.FailedLabels) == len(results) && len(results) > 0:
		o.Status = OutcomeFailed
	case len(o.FailedLabels) > 0:
		o.Status = OutcomePartial
	}
	return o
}
