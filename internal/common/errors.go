// Package common defines shared constants and sentinel errors used across
// the FitSync client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Configuration errors (missing required setting; fatal at startup or
	// at the first call that needs the value).
	ErrConfiguration = errors.New("configuration error")

	// Transport-level failure. Retryable at the caller's discretion; no
	// layer below the caller retries on its own.
	ErrNetwork = errors.New("network error")

	// Row / record lookup errors.
	ErrNotFound = errors.New("not found")

	// Lifecycle errors.
	ErrSessionConflict  = errors.New("an active session already exists")
	ErrNotAuthenticated = errors.New("not authenticated")
)
