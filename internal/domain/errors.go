package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a resource does not exist upstream or locally
	ErrNotFound = errors.New("resource not found")

	// ErrNotLinked is returned when a user has no Strava account connected
	ErrNotLinked = errors.New("strava account not linked")

	// ErrRateLimited is returned when the provider rejected the call even after
	// the bounded retry
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUpstream is returned for provider failures that are neither not-found
	// nor rate-limit
	ErrUpstream = errors.New("upstream provider failure")

	// ErrPermissionDenied is returned when a plan does not belong to the
	// requesting user
	ErrPermissionDenied = errors.New("permission denied")
)
