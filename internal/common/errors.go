// Package common defines shared constants and sentinel errors used across
// the event portal layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("admin access required")

	// Registration validation errors.
	ErrMissingField        = errors.New("all fields are required")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWindowClosed        = errors.New("registrations are closed for today")
	ErrInvalidRollNumber   = errors.New("roll number is not eligible for this event")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateRollNumber = errors.New("roll number already registered")
	ErrCapacityExceeded    = errors.New("system slots full, please bring your own laptop")

	// Login errors.
	ErrNotApproved         = errors.New("wait for admin approval")
	ErrNoCredential        = errors.New("credentials have not been issued yet")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAlreadyApproved     = errors.New("user already approved")
	ErrMissingLink         = errors.New("github link is required")
	ErrEmptyMessage        = errors.New("message is required")
	ErrDeliveryFailed      = errors.New("credential delivery failed")
	ErrStorageNotAvailable = errors.New("export storage is not configured")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
