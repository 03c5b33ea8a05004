package hls

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// Runner executes one pipeline job. Satisfied by *Orchestrator.
type Runner interface {
	Run(ctx context.Context, mediaID uuid.UUID, sourceURL string) (*pipeline.Outcome, error)
}

type dispatchJob struct {
	mediaID   uuid.UUID
	sourceURL string
}

// Dispatcher is an in-process asynchronous job queue feeding a bounded set
// of pipeline workers. Enqueued jobs are delivered at least once to the
// runner; nothing deduplicates jobs for the same media id.
type Dispatcher struct {
	runner Runner
	jobs   chan dispatchJob
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewDispatcher starts workers consuming the queue.
func NewDispatcher(runner Runner, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		runner: runner,
		jobs:   make(chan dispatchJob, queueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("dispatcher"),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

// Enqueue queues one pipeline run. It blocks while the queue is full and
// must not be called after Shutdown (the queue is closed by then).
func (d *Dispatcher) Enqueue(mediaID uuid.UUID, sourceURL string) {
	d.jobs <- dispatchJob{mediaID: mediaID, sourceURL: sourceURL}
}

// Shutdown stops accepting work and waits for the workers to drain the
// queue; queued and in-flight jobs run to completion.
func (d *Dispatcher) Shutdown() {
	close(d.jobs)
	d.wg.Wait()
	d.cancel()
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	log := d.logger.With(zap.Int("worker", id))

	for job := range d.jobs {
		if _, err := d.runner.Run(d.ctx, job.mediaID, job.sourceURL); err != nil {
			log.Error("pipeline job failed",
				zap.String("media_id", job.mediaID.String()),
				zap.Error(err))
		}
	}
}
