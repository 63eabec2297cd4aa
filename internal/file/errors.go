package file

import "errors"

var (
	// ErrFileNotFound signals that the file could not be located, including
	// records owned by another user.
	ErrFileNotFound = errors.New("file not found")
	// ErrExtensionNotAllowed signals the filename extension is outside the
	// upload allow-list.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrFileTooLarge signals the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
	// ErrProcessingBusy signals the processing queue could not accept work.
	ErrProcessingBusy = errors.New("processing queue full")
)
