package service

import "errors"

var (
	// ErrInvalidInput is returned before any external call when the request is unusable
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated means the caller identity could not be established
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoCredential means the caller never stored an accounting API token
	ErrNoCredential = errors.New("no accounting connection on file")
	// ErrNoAdministration means the stored token resolves to no administration
	ErrNoAdministration = errors.New("no administration available for this connection")
	// ErrCredentialRejected means the accounting API refused the supplied token
	ErrCredentialRejected = errors.New("accounting API rejected the access token")
	// ErrInvalidCredentials is returned for a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrConflict is returned when a unique value is already taken
	ErrConflict = errors.New("already exists")
)
