package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/almasbek/mediaportal/internal/config"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// profileStore abstracts the persistence layer.
type profileStore interface {
	List(ctx context.Context, skip, limit int) ([]auth.User, error)
	Get(ctx context.Context, id uuid.UUID) (auth.User, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (auth.User, error)
	EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	UsernameInUse(ctx context.Context, username string, excludeID uuid.UUID) (bool, error)
}

// Service encapsulates profile and admin user management.
type Service struct {
	store      profileStore
	bcryptCost int
}

// NewService creates a Service with dependencies.
func NewService(store profileStore, cfg config.AuthConfig) *Service {
	return &Service{store: store, bcryptCost: cfg.BcryptCost}
}

// List returns a page of all users. Authorization is the caller's concern.
func (s *Service) List(ctx context.Context, skip, limit int) ([]auth.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	users, err := s.store.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].SafeUser()
	}
	return users, nil
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (auth.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return auth.User{}, err
	}
	return u.SafeUser(), nil
}

// UpdateInput carries optional profile changes; nil fields are untouched.
type UpdateInput struct {
	Email          *string
	Username       *string
	Password       *string
	ProfilePicture *string
	IsActive       *bool
}

// Update validates and applies profile changes, enforcing email/username
// uniqueness and rehashing the password when it changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (auth.User, error) {
	params := UpdateParams{
		ProfilePicture: input.ProfilePicture,
		IsActive:       input.IsActive,
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		taken, err := s.store.EmailInUse(ctx, email, id)
		if err != nil {
			return auth.User{}, err
		}
		if taken {
			return auth.User{}, ErrEmailTaken
		}
		params.Email = &email
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if !auth.ValidUsername(username) {
			return auth.User{}, ErrInvalidUsername
		}
		taken, err := s.store.UsernameInUse(ctx, username, id)
		if err != nil {
			return auth.User{}, err
		}
		if taken {
			return auth.User{}, ErrUsernameTaken
		}
		params.Username = &username
	}

	if input.Password != nil {
		if !auth.ValidPassword(*input.Password) {
			return auth.User{}, ErrWeakPassword
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return auth.User{}, fmt.Errorf("hash password: %w", err)
		}
		hash := string(hashed)
		params.PasswordHash = &hash
	}

	updated, err := s.store.Update(ctx, id, params)
	if err != nil {
		return auth.User{}, err
	}
	return updated.SafeUser(), nil
}
