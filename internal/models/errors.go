package models

import "errors"

var (
	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord is returned when a required field is missing or malformed.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrStoreUnavailable is returned when the backing medium cannot be read or written.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateEmail is returned on sign up with an email that is already registered.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrInvalidCredentials is returned when a sign in does not match.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrNotAuthenticated is returned when an operation needs a signed in user.
	ErrNotAuthenticated = errors.New("not signed in")
)
