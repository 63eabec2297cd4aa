package processing

import (
	"context"
	"errors"
	"sync"

	"github.com/almasbek/mediaportal/internal/config"
	"github.com/almasbek/mediaportal/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the queue cannot accept more work without
// blocking the request path.
var ErrQueueFull = errors.New("processing queue full")

// runner executes one processing run for a file id.
type runner interface {
	Process(ctx context.Context, fileID uuid.UUID) error
}

// Pool decouples upload latency from processing latency: enqueues never
// block, and a fixed set of workers drains the queue. Files are processed
// independently; no ordering between them is guaranteed.
type Pool struct {
	queue   chan uuid.UUID
	proc    runner
	workers int
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewPool constructs a worker pool sized by configuration.
func NewPool(proc runner, cfg config.ProcessingConfig, logger *zap.Logger) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Pool{
		queue:   make(chan uuid.UUID, queueSize),
		proc:    proc,
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. They stop when ctx is cancelled or the queue
// is closed via Stop.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Enqueue schedules a file for processing without blocking.
func (p *Pool) Enqueue(fileID uuid.UUID) error {
	select {
	case p.queue <- fileID:
		return nil
	default:
		metrics.QueueRejected.Inc()
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for workers to finish their current runs.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case fileID, ok := <-p.queue:
			if !ok {
				return
			}
			if err := p.proc.Process(ctx, fileID); err != nil {
				// Shared-infrastructure failures only; per-file errors are
				// already absorbed into the record.
				p.logger.Error("processing run failed",
					zap.String("file_id", fileID.String()),
					zap.Error(err))
			}
		}
	}
}
