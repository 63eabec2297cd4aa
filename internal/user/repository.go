package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const userColumns = `id, email, username, password_hash, google_id, profile_picture, is_active, is_admin, created_at, updated_at`

// Repository provides database access for user management.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of users ordered by creation time.
func (r *Repository) List(ctx context.Context, skip, limit int) ([]auth.User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + userColumns + `
FROM users
ORDER BY created_at ASC
OFFSET $1 LIMIT $2;`

	rows, err := r.pool.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Get fetches a user by primary key.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (auth.User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateParams carries optional column updates; nil fields are untouched.
type UpdateParams struct {
	Email          *string
	Username       *string
	PasswordHash   *string
	ProfilePicture *string
	IsActive       *bool
}

// Update applies the non-nil fields and returns the refreshed row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (auth.User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE users
SET email = COALESCE($2, email),
    username = COALESCE($3, username),
    password_hash = COALESCE($4, password_hash),
    profile_picture = COALESCE($5, profile_picture),
    is_active = COALESCE($6, is_active),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id,
		params.Email, params.Username, params.PasswordHash, params.ProfilePicture, params.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// EmailInUse reports whether another account already uses the email.
func (r *Repository) EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return r.columnInUse(ctx, "email", email, excludeID)
}

// UsernameInUse reports whether another account already uses the username.
func (r *Repository) UsernameInUse(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	return r.columnInUse(ctx, "username", username, excludeID)
}

func (r *Repository) columnInUse(ctx context.Context, column, value string, excludeID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + column + ` = $1 AND id <> $2);`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, value, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s in use: %w", column, err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.GoogleID,
		&u.ProfilePicture,
		&u.IsActive,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
