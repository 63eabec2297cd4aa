package file

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the processing lifecycle state of an uploaded file.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further automatic transition follows.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record represents one uploaded artifact. ObjectName is the opaque stored
// name on the object store; OriginalFilename is display-only and never used
// as a storage path. Result is nil unless Status is terminal.
type Record struct {
	ID                  uuid.UUID       `json:"id"`
	OwnerID             uuid.UUID       `json:"owner_id"`
	ObjectName          string          `json:"object_name"`
	OriginalFilename    string          `json:"original_filename"`
	SizeBytes           int64           `json:"size_bytes"`
	DeclaredContentType string          `json:"declared_content_type"`
	Status              Status          `json:"status"`
	Result              json.RawMessage `json:"result,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
