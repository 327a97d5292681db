package store

import "errors"

// Store-layer failures. The messages are shown to end users as-is.
var (
	ErrDuplicateUsername  = errors.New("Username already taken")
	ErrDuplicateEmail     = errors.New("Email already registered")
	ErrUserNotFound       = errors.New("User not found")
	ErrAccountSuspended   = errors.New("Account Suspended. Contact Admin.")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrImageNotFound      = errors.New("Image not found")

	// ErrUnavailable wraps slot read failures other than a missing key.
	ErrUnavailable = errors.New("User storage is unavailable, try again later")
)
