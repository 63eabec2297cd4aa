package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const recordColumns = `id, owner_id, object_name, original_filename, size_bytes, declared_content_type, status, result, created_at, updated_at`

// Repository provides access to file record storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new pending record.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, owner_id, object_name, original_filename, size_bytes, declared_content_type, status, result)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
RETURNING ` + recordColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.ObjectName,
		rec.OriginalFilename,
		rec.SizeBytes,
		rec.DeclaredContentType,
		StatusPending,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("create file record: %w", err)
	}
	return stored, nil
}

// List returns a page of records owned by the user, newest first.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + recordColumns + `
FROM files
WHERE owner_id = $1
ORDER BY created_at DESC
OFFSET $2 LIMIT $3;`

	rows, err := r.pool.Query(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return records, nil
}

// Count returns the number of records owned by the user.
func (r *Repository) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM files WHERE owner_id = $1;`, ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

// Get fetches a single record ensuring ownership.
func (r *Repository) Get(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM files WHERE id = $1 AND owner_id = $2;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, fileID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("get file record: %w", err)
	}
	return rec, nil
}

// Delete removes a record ensuring ownership and returns the deleted row.
func (r *Repository) Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
DELETE FROM files
WHERE id = $1 AND owner_id = $2
RETURNING ` + recordColumns + `;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, fileID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("delete file record: %w", err)
	}
	return rec, nil
}

// MarkProcessing transitions a record to processing regardless of owner; the
// orchestrator runs without a caller identity.
func (r *Repository) MarkProcessing(ctx context.Context, fileID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + recordColumns + `;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, fileID, StatusProcessing))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("mark processing: %w", err)
	}
	return rec, nil
}

// Finish writes the terminal status and result in a single atomic update.
func (r *Repository) Finish(ctx context.Context, fileID uuid.UUID, status Status, result json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET status = $2, result = $3, updated_at = NOW()
WHERE id = $1;`

	if _, err := r.pool.Exec(ctx, query, fileID, status, result); err != nil {
		return fmt.Errorf("finish file record: %w", err)
	}
	return nil
}

// Reset returns a record to pending with its result cleared, ensuring
// ownership. Used by the reprocess operation.
func (r *Repository) Reset(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET status = $3, result = NULL, updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING ` + recordColumns + `;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, fileID, ownerID, StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("reset file record: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var result []byte
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.ObjectName,
		&rec.OriginalFilename,
		&rec.SizeBytes,
		&rec.DeclaredContentType,
		&rec.Status,
		&result,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if len(result) > 0 {
		rec.Result = json.RawMessage(result)
	}
	return rec, nil
}
