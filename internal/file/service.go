package file

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/almasbek/mediaportal/internal/config"
	"github.com/almasbek/mediaportal/internal/metrics"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// recordStore abstracts the persistence layer.
type recordStore interface {
	Create(ctx context.Context, rec Record) (Record, error)
	List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]Record, error)
	Count(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Get(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error)
	Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error)
	Reset(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// enqueuer hands a file id to the background processing pool.
type enqueuer interface {
	Enqueue(id uuid.UUID) error
}

// Service manages file lifecycle operations.
type Service struct {
	repo         recordStore
	objectStore  objectStore
	queue        enqueuer
	objectBucket string
	allowedExts  map[string]struct{}
	maxFileSize  int64
	urlTTL       time.Duration
	logger       *zap.Logger
}

// NewService constructs a file service.
func NewService(repo recordStore, store objectStore, queue enqueuer, objectBucket string, cfg config.UploadConfig, logger *zap.Logger) *Service {
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return &Service{
		repo:         repo,
		objectStore:  store,
		queue:        queue,
		objectBucket: objectBucket,
		allowedExts:  allowed,
		maxFileSize:  cfg.MaxFileSize,
		urlTTL:       cfg.DownloadURLTTL,
		logger:       logger,
	}
}

// Upload validates the extension allow-list, stores the bytes under an opaque
// generated name, creates a pending record and schedules processing. It
// returns before any classification or extraction runs.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, fileHeader *multipart.FileHeader) (Record, error) {
	if fileHeader == nil {
		return Record{}, fmt.Errorf("missing file payload")
	}

	ext := extension(fileHeader.Filename)
	if _, ok := s.allowedExts[ext]; !ok {
		return Record{}, ErrExtensionNotAllowed
	}

	if s.maxFileSize > 0 && fileHeader.Size > s.maxFileSize {
		return Record{}, ErrFileTooLarge
	}

	fileID := uuid.New()
	objectName := fmt.Sprintf("%s.%s", fileID.String(), ext)

	src, err := fileHeader.Open()
	if err != nil {
		return Record{}, fmt.Errorf("open upload file: %w", err)
	}
	defer src.Close()

	putOpts := minio.PutObjectOptions{
		ContentType: declaredContentType(fileHeader),
	}

	uploadInfo, err := s.objectStore.PutObject(ctx, s.objectBucket, objectName, src, fileHeader.Size, putOpts)
	if err != nil {
		return Record{}, fmt.Errorf("store object: %w", err)
	}

	size := uploadInfo.Size
	if size <= 0 {
		size = fileHeader.Size
	}

	rec := Record{
		ID:                  fileID,
		OwnerID:             ownerID,
		ObjectName:          objectName,
		OriginalFilename:    sanitizeFilename(fileHeader.Filename),
		SizeBytes:           size,
		DeclaredContentType: putOpts.ContentType,
		Status:              StatusPending,
	}

	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		_ = s.objectStore.RemoveObject(ctx, s.objectBucket, objectName, minio.RemoveObjectOptions{})
		return Record{}, err
	}

	if err := s.queue.Enqueue(fileID); err != nil {
		// Roll back so the caller can retry the whole upload.
		_, _ = s.repo.Delete(ctx, ownerID, fileID)
		_ = s.objectStore.RemoveObject(ctx, s.objectBucket, objectName, minio.RemoveObjectOptions{})
		return Record{}, ErrProcessingBusy
	}

	metrics.FilesUploaded.Inc()
	return stored, nil
}

// List returns one page of the caller's records together with the total count.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) (int64, []Record, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	total, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return 0, nil, err
	}

	records, err := s.repo.List(ctx, ownerID, skip, limit)
	if err != nil {
		return 0, nil, err
	}
	return total, records, nil
}

// Get fetches a single owned record.
func (s *Service) Get(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	return s.repo.Get(ctx, ownerID, fileID)
}

// Delete removes the record and best-effort removes the backing bytes; a
// byte-removal failure never blocks record deletion.
func (s *Service) Delete(ctx context.Context, ownerID, fileID uuid.UUID) error {
	rec, err := s.repo.Delete(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, rec.ObjectName, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Warn("remove object failed",
			zap.String("object_name", rec.ObjectName),
			zap.Error(err))
	}
	return nil
}

// Reprocess resets an owned record to pending, clears its result and
// schedules a fresh run.
func (s *Service) Reprocess(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	rec, err := s.repo.Reset(ctx, ownerID, fileID)
	if err != nil {
		return Record{}, err
	}

	if err := s.queue.Enqueue(fileID); err != nil {
		// Record stays pending; the caller can retry the reprocess.
		return Record{}, ErrProcessingBusy
	}
	return rec, nil
}

// DownloadURL returns a presigned URL for the stored bytes of an owned record.
func (s *Service) DownloadURL(ctx context.Context, ownerID, fileID uuid.UUID) (string, error) {
	rec, err := s.repo.Get(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", rec.OriginalFilename))

	u, err := s.objectStore.PresignedGetObject(ctx, s.objectBucket, rec.ObjectName, s.urlTTL, params)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func declaredContentType(fileHeader *multipart.FileHeader) string {
	if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// sanitizeFilename strips any path components from the client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}
