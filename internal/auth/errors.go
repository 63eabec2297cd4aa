package auth

import "errors"

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUsernameTaken indicates the username is already in use.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUsername signals the username fails the format rules.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrWeakPassword signals the password fails the strength rules.
	ErrWeakPassword = errors.New("password too weak")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrInactiveUser is returned when a deactivated account authenticates.
	ErrInactiveUser = errors.New("inactive user")
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrGoogleTokenInvalid is returned when Google rejects the ID token.
	ErrGoogleTokenInvalid = errors.New("invalid google token")
)
