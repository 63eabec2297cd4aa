package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user. GoogleID is set only for accounts
// created or linked through Google OAuth.
type User struct {
	ID             uuid.UUID
	Email          string
	Username       string
	PasswordHash   string
	GoogleID       *string
	ProfilePicture *string
	IsActive       bool
	IsAdmin        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}

// TokenPair bundles access and refresh tokens.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}
