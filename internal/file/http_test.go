package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(service *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	group := router.Group("/v1")
	group.Use(func(c *gin.Context) {
		auth.SetContextUser(c, auth.ContextUser{ID: userID.String(), Email: "user@example.com"})
		c.Next()
	})
	RegisterRoutes(group, service)
	return router
}

func newHTTPTestService(repo *fakeRecordStore, queue *fakeQueue) *Service {
	return NewService(repo, &fakeObjectStore{}, queue, "mediaportal", testUploadConfig(), zap.NewNop())
}

func TestUploadEndpoint(t *testing.T) {
	repo := newFakeRecordStore()
	queue := &fakeQueue{}
	userID := uuid.New()
	router := newTestRouter(newHTTPTestService(repo, queue), userID)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "report.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var rec Record
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &rec))
	assert.Equal(t, "report.csv", rec.OriginalFilename)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Len(t, queue.enqueued, 1)
}

func TestUploadEndpointMissingFileField(t *testing.T) {
	router := newTestRouter(newHTTPTestService(newFakeRecordStore(), &fakeQueue{}), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/v1/files", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListEndpoint(t *testing.T) {
	repo := newFakeRecordStore()
	userID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: userID, Status: StatusCompleted}
	repo.records[rec.ID] = rec
	router := newTestRouter(newHTTPTestService(repo, &fakeQueue{}), userID)

	req := httptest.NewRequest(http.MethodGet, "/v1/files?skip=0&limit=10", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Total int64    `json:"total"`
		Files []Record `json:"files"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Len(t, resp.Files, 1)
}

func TestListEndpointEmptyIsArray(t *testing.T) {
	router := newTestRouter(newHTTPTestService(newFakeRecordStore(), &fakeQueue{}), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/v1/files", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"files":[]`)
}

func TestGetEndpointForeignFileIs404(t *testing.T) {
	repo := newFakeRecordStore()
	foreign := Record{ID: uuid.New(), OwnerID: uuid.New(), Status: StatusCompleted}
	repo.records[foreign.ID] = foreign
	router := newTestRouter(newHTTPTestService(repo, &fakeQueue{}), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/v1/files/"+foreign.ID.String(), nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	// Ownership failures are indistinguishable from missing files.
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetEndpointInvalidID(t *testing.T) {
	router := newTestRouter(newHTTPTestService(newFakeRecordStore(), &fakeQueue{}), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/v1/files/not-a-uuid", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStatusEndpoint(t *testing.T) {
	repo := newFakeRecordStore()
	userID := uuid.New()
	rec := Record{
		ID:        uuid.New(),
		OwnerID:   userID,
		Status:    StatusCompleted,
		Result:    json.RawMessage(`{"type":"text"}`),
		UpdatedAt: time.Now(),
	}
	repo.records[rec.ID] = rec
	router := newTestRouter(newHTTPTestService(repo, &fakeQueue{}), userID)

	req := httptest.NewRequest(http.MethodGet, "/v1/files/"+rec.ID.String()+"/status", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp["status"])
	assert.Contains(t, resp, "result")
}

func TestStatusEndpointOmitsNilResult(t *testing.T) {
	repo := newFakeRecordStore()
	userID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: userID, Status: StatusPending, UpdatedAt: time.Now()}
	repo.records[rec.ID] = rec
	router := newTestRouter(newHTTPTestService(repo, &fakeQueue{}), userID)

	req := httptest.NewRequest(http.MethodGet, "/v1/files/"+rec.ID.String()+"/status", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp["status"])
	assert.NotContains(t, resp, "result")
}

func TestDeleteEndpoint(t *testing.T) {
	repo := newFakeRecordStore()
	userID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: userID, ObjectName: "obj.txt"}
	repo.records[rec.ID] = rec
	router := newTestRouter(newHTTPTestService(repo, &fakeQueue{}), userID)

	req := httptest.NewRequest(http.MethodDelete, "/v1/files/"+rec.ID.String(), nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, repo.records)
}

func TestReprocessEndpoint(t *testing.T) {
	repo := newFakeRecordStore()
	queue := &fakeQueue{}
	userID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: userID, Status: StatusFailed, Result: json.RawMessage(`{"error":"x"}`)}
	repo.records[rec.ID] = rec
	router := newTestRouter(newHTTPTestService(repo, queue), userID)

	req := httptest.NewRequest(http.MethodPost, "/v1/files/"+rec.ID.String()+"/reprocess", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, StatusPending, repo.records[rec.ID].Status)
	assert.Len(t, queue.enqueued, 1)
}

func TestReprocessEndpointQueueFull(t *testing.T) {
	repo := newFakeRecordStore()
	queue := &fakeQueue{err: errors.New("full")}
	userID := uuid.New()
	rec := Record{ID: uuid.New(), OwnerID: userID, Status: StatusFailed}
	repo.records[rec.ID] = rec
	router := newTestRouter(newHTTPTestService(repo, queue), userID)

	req := httptest.NewRequest(http.MethodPost, "/v1/files/"+rec.ID.String()+"/reprocess", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}
