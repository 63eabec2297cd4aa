package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/almasbek/mediaportal/internal/file"
	"github.com/almasbek/mediaportal/internal/metrics"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const persistTimeout = 10 * time.Second

// ErrObjectStoreUnavailable marks a failure reaching the backing object
// store. Unlike per-file parse errors it may affect every queued file, so it
// surfaces from Process in addition to being recorded on the file.
var ErrObjectStoreUnavailable = errors.New("object store unavailable")

// recordStore is the slice of the file repository the orchestrator mutates.
type recordStore interface {
	MarkProcessing(ctx context.Context, fileID uuid.UUID) (file.Record, error)
	Finish(ctx context.Context, fileID uuid.UUID, status file.Status, result json.RawMessage) error
}

type objectStore interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// Processor runs the per-file state machine: mark processing, classify,
// extract, persist a terminal status. Per-file failures are absorbed into the
// record; only record-store failures surface to the caller.
type Processor struct {
	records      recordStore
	objects      objectStore
	objectBucket string
	registry     *Registry
	runTimeout   time.Duration
	logger       *zap.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(records recordStore, objects objectStore, objectBucket string, registry *Registry, runTimeout time.Duration, logger *zap.Logger) *Processor {
	return &Processor{
		records:      records,
		objects:      objects,
		objectBucket: objectBucket,
		registry:     registry,
		runTimeout:   runTimeout,
		logger:       logger,
	}
}

// Process executes one orchestration run for the given file id. A missing
// record is a no-op: it may have been deleted after being enqueued. The
// returned error is non-nil only for shared-infrastructure failures: record
// store writes and object store transport. Per-file parse failures are
// absorbed into the record.
func (p *Processor) Process(ctx context.Context, fileID uuid.UUID) error {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.runTimeout)
	defer cancel()

	rec, err := p.records.MarkProcessing(runCtx, fileID)
	if errors.Is(err, file.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	started := time.Now()
	category, result, runErr := p.run(runCtx, rec)

	status := file.StatusCompleted
	if runErr != nil {
		status = file.StatusFailed
		p.logger.Warn("file processing failed",
			zap.String("file_id", fileID.String()),
			zap.String("category", string(category)),
			zap.Error(runErr))
	}

	// Persisting the terminal state must survive a run that timed out.
	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancelPersist()

	if err := p.records.Finish(persistCtx, fileID, status, result); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}

	metrics.FilesProcessed.WithLabelValues(string(category), string(status)).Inc()
	metrics.ProcessingDuration.Observe(time.Since(started).Seconds())

	if errors.Is(runErr, ErrObjectStoreUnavailable) {
		return runErr
	}
	return nil
}

// run performs classify+extract. It always returns a usable result payload:
// the extractor's output on success, a sanitized error payload otherwise.
// Extractor panics are contained here.
func (p *Processor) run(ctx context.Context, rec file.Record) (category Category, result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
			result = failureResult("unexpected error while processing file")
		}
	}()

	obj, err := p.objects.GetObject(ctx, p.objectBucket, rec.ObjectName, minio.GetObjectOptions{})
	if err != nil {
		return "", failureResult("could not read stored file"), fmt.Errorf("fetch object: %w: %w", ErrObjectStoreUnavailable, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", failureResult("could not read stored file"), fmt.Errorf("read object: %w: %w", ErrObjectStoreUnavailable, err)
	}

	category, detectedMIME := Classify(data)

	result, err = p.registry.Extract(category, Input{
		Data:         data,
		MIME:         detectedMIME,
		LastModified: rec.CreatedAt,
	})
	if err != nil {
		return category, failureResult("could not parse file content"), fmt.Errorf("extract: %w", err)
	}

	if ctx.Err() != nil {
		return category, failureResult("processing timed out"), ctx.Err()
	}

	return category, result, nil
}
