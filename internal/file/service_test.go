package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/almasbek/mediaportal/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		AllowedExtensions: []string{"txt", "csv", "png"},
		MaxFileSize:       1 << 20,
		DownloadURLTTL:    15 * time.Minute,
	}
}

func TestUploadStoresObjectAndPendingRecord(t *testing.T) {
	repo := newFakeRecordStore()
	store := &fakeObjectStore{}
	queue := &fakeQueue{}
	service := NewService(repo, store, queue, "mediaportal", testUploadConfig(), zap.NewNop())

	ownerID := uuid.New()
	fileHeader := buildFileHeader(t, "file", "notes.txt", "text/plain", []byte("hello world"))

	rec, err := service.Upload(context.Background(), ownerID, fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if rec.OriginalFilename != "notes.txt" {
		t.Fatalf("unexpected filename: %s", rec.OriginalFilename)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", rec.Status)
	}
	if !store.putCalled {
		t.Fatalf("expected PutObject to be called")
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != rec.ID {
		t.Fatalf("expected record enqueued for processing")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected one stored record, got %d", len(repo.records))
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	repo := newFakeRecordStore()
	store := &fakeObjectStore{}
	queue := &fakeQueue{}
	service := NewService(repo, store, queue, "mediaportal", testUploadConfig(), zap.NewNop())

	fileHeader := buildFileHeader(t, "file", "payload.exe", "application/octet-stream", []byte{0x4d, 0x5a})

	if _, err := service.Upload(context.Background(), uuid.New(), fileHeader); !errors.Is(err, ErrExtensionNotAllowed) {
		t.Fatalf("expected ErrExtensionNotAllowed, got %v", err)
	}
	if store.putCalled {
		t.Fatalf("object must not be stored for a rejected upload")
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	repo := newFakeRecordStore()
	cfg := testUploadConfig()
	cfg.MaxFileSize = 4
	service := NewService(repo, &fakeObjectStore{}, &fakeQueue{}, "mediaportal", cfg, zap.NewNop())

	fileHeader := buildFileHeader(t, "file", "big.txt", "text/plain", []byte("too large"))

	if _, err := service.Upload(context.Background(), uuid.New(), fileHeader); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestUploadRollsBackWhenQueueFull(t *testing.T) {
	repo := newFakeRecordStore()
	store := &fakeObjectStore{}
	queue := &fakeQueue{err: errors.New("queue full")}
	service := NewService(repo, store, queue, "mediaportal", testUploadConfig(), zap.NewNop())

	fileHeader := buildFileHeader(t, "file", "notes.txt", "text/plain", []byte("hello"))

	if _, err := service.Upload(context.Background(), uuid.New(), fileHeader); !errors.Is(err, ErrProcessingBusy) {
		t.Fatalf("expected ErrProcessingBusy, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected record rolled back, remaining %d", len(repo.records))
	}
	if store.removeCount != 1 {
		t.Fatalf("expected stored object removed, remove count %d", store.removeCount)
	}
}

func TestDeleteSwallowsObjectRemovalFailure(t *testing.T) {
	repo := newFakeRecordStore()
	store := &fakeObjectStore{removeErr: errors.New("minio unavailable")}
	service := NewService(repo, store, &fakeQueue{}, "mediaportal", testUploadConfig(), zap.NewNop())

	ownerID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: ownerID, ObjectName: "obj.txt", Status: StatusCompleted}
	repo.records[rec.ID] = rec

	if err := service.Delete(context.Background(), ownerID, rec.ID); err != nil {
		t.Fatalf("Delete must succeed despite object removal failure, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected record removed, remaining %d", len(repo.records))
	}
}

func TestDeleteUnknownFileReturnsNotFound(t *testing.T) {
	repo := newFakeRecordStore()
	service := NewService(repo, &fakeObjectStore{}, &fakeQueue{}, "mediaportal", testUploadConfig(), zap.NewNop())

	if err := service.Delete(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestReprocessResetsAndEnqueues(t *testing.T) {
	repo := newFakeRecordStore()
	queue := &fakeQueue{}
	service := NewService(repo, &fakeObjectStore{}, queue, "mediaportal", testUploadConfig(), zap.NewNop())

	ownerID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: ownerID, ObjectName: "obj.csv", Status: StatusFailed}
	repo.records[rec.ID] = rec

	reset, err := service.Reprocess(context.Background(), ownerID, rec.ID)
	if err != nil {
		t.Fatalf("Reprocess returned error: %v", err)
	}
	if reset.Status != StatusPending {
		t.Fatalf("expected pending after reset, got %s", reset.Status)
	}
	if reset.Result != nil {
		t.Fatalf("expected result cleared on reset")
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != rec.ID {
		t.Fatalf("expected file enqueued for reprocessing")
	}
}

func TestReprocessOtherOwnersFileNotFound(t *testing.T) {
	repo := newFakeRecordStore()
	service := NewService(repo, &fakeObjectStore{}, &fakeQueue{}, "mediaportal", testUploadConfig(), zap.NewNop())

	rec := Record{ID: uuid.New(), OwnerID: uuid.New(), Status: StatusCompleted}
	repo.records[rec.ID] = rec

	if _, err := service.Reprocess(context.Background(), uuid.New(), rec.ID); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound for foreign file, got %v", err)
	}
}

func TestListClampsPagination(t *testing.T) {
	repo := newFakeRecordStore()
	service := NewService(repo, &fakeObjectStore{}, &fakeQueue{}, "mediaportal", testUploadConfig(), zap.NewNop())

	ownerID := uuid.New()
	for i := 0; i < 3; i++ {
		rec := Record{ID: uuid.New(), OwnerID: ownerID, Status: StatusPending}
		repo.records[rec.ID] = rec
	}

	total, records, err := service.List(context.Background(), ownerID, -5, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, fieldName, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	header := req.MultipartForm.File[fieldName][0]
	header.Header.Set("Content-Type", contentType)
	return header
}

type fakeRecordStore struct {
	records map[uuid.UUID]Record
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[uuid.UUID]Record)}
}

func (f *fakeRecordStore) Create(ctx context.Context, rec Record) (Record, error) {
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRecordStore) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]Record, error) {
	var list []Record
	for _, rec := range f.records {
		if rec.OwnerID == ownerID {
			list = append(list, rec)
		}
	}
	if skip >= len(list) {
		return nil, nil
	}
	list = list[skip:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (f *fakeRecordStore) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	for _, rec := range f.records {
		if rec.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRecordStore) Get(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	rec, ok := f.records[fileID]
	if !ok || rec.OwnerID != ownerID {
		return Record{}, ErrFileNotFound
	}
	return rec, nil
}

func (f *fakeRecordStore) Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	rec, ok := f.records[fileID]
	if !ok || rec.OwnerID != ownerID {
		return Record{}, ErrFileNotFound
	}
	delete(f.records, fileID)
	return rec, nil
}

func (f *fakeRecordStore) Reset(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	rec, ok := f.records[fileID]
	if !ok || rec.OwnerID != ownerID {
		return Record{}, ErrFileNotFound
	}
	rec.Status = StatusPending
	rec.Result = nil
	rec.UpdatedAt = time.Now()
	f.records[fileID] = rec
	return rec, nil
}

type fakeObjectStore struct {
	putCalled   bool
	removeCount int
	removeErr   error
	data        []byte
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.putCalled = true
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.data = data
	return minio.UploadInfo{Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	f.removeCount++
	return f.removeErr
}

func (f *fakeObjectStore) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	return url.Parse("https://minio.local/" + bucketName + "/" + objectName)
}

type fakeQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeQueue) Enqueue(id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, id)
	return nil
}
