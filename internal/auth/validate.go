package auth

import "regexp"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,18}[a-zA-Z0-9]$`)
	lowercaseRE     = regexp.MustCompile(`[a-z]`)
	uppercaseRE     = regexp.MustCompile(`[A-Z]`)
	digitRE         = regexp.MustCompile(`\d`)
	specialRE       = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// ValidUsername reports whether a username is acceptable: 3-20 characters,
// letters/digits/underscores/hyphens, not starting or ending with a separator.
func ValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 20 {
		return false
	}
	return usernamePattern.MatchString(username)
}

// ValidPassword reports whether a password is strong enough: at least 8
// characters with lowercase, uppercase, digit and special characters.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowercaseRE.MatchString(password) &&
		uppercaseRE.MatchString(password) &&
		digitRE.MatchString(password) &&
		specialRE.MatchString(password)
}
