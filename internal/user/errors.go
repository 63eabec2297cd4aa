package user

import "errors"

var (
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email belongs to another account.
	ErrEmailTaken = errors.New("email taken")
	// ErrUsernameTaken indicates the username belongs to another account.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidUsername signals the username fails the format rules.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrWeakPassword signals the password fails the strength rules.
	ErrWeakPassword = errors.New("password too weak")
)
