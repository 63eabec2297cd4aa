package file

import (
	"net/http"
	"strconv"

	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files", handler.uploadFile)
	group.GET("/files", handler.listFiles)
	group.GET("/files/:fileID", handler.getFile)
	group.DELETE("/files/:fileID", handler.deleteFile)
	group.GET("/files/:fileID/status", handler.fileStatus)
	group.POST("/files/:fileID/reprocess", handler.reprocessFile)
	group.GET("/files/:fileID/download", handler.downloadFile)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	rec, err := h.service.Upload(c.Request.Context(), userID, fileHeader)
	if err != nil {
		switch err {
		case ErrExtensionNotAllowed:
			c.JSON(http.StatusBadRequest, gin.H{"error": "file type not allowed"})
		case ErrFileTooLarge:
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		case ErrProcessingBusy:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "processing queue full, retry later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		}
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	total, records, err := h.service.List(c.Request.Context(), userID, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	if records == nil {
		records = []Record{}
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "files": records})
}

func (h *httpHandler) getFile(c *gin.Context) {
	userID, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), userID, fileID)
	if err != nil {
		respondFileError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	userID, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, fileID); err != nil {
		respondFileError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) fileStatus(c *gin.Context) {
	userID, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), userID, fileID)
	if err != nil {
		respondFileError(c, err)
		return
	}

	resp := gin.H{
		"status":     rec.Status,
		"updated_at": rec.UpdatedAt,
	}
	if rec.Result != nil {
		resp["result"] = rec.Result
	}
	c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) reprocessFile(c *gin.Context) {
	userID, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	rec, err := h.service.Reprocess(c.Request.Context(), userID, fileID)
	if err != nil {
		respondFileError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "file reprocessing started",
		"file_id": rec.ID,
	})
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	userID, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	downloadURL, err := h.service.DownloadURL(c.Request.Context(), userID, fileID)
	if err != nil {
		respondFileError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": downloadURL})
}

func requireFileRequest(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, fileID, true
}

func respondFileError(c *gin.Context, err error) {
	switch err {
	case ErrFileNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case ErrProcessingBusy:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "processing queue full, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
	}
}
