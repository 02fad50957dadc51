package models

import "errors"

// Error taxonomy for the ingestion and retrieval pipeline. Components wrap
// these sentinels with context; callers classify with errors.Is.
var (
	// ErrTickerNotFound means the ticker is unknown to the registry.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrFilingNotFound means no qualifying annual filing exists.
	ErrFilingNotFound = errors.New("no annual filing found")

	// ErrRateLimited means the upstream registry rejected the request with
	// a rate-limit response. Never retried internally.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrFilingTooLarge means the declared content length exceeds the
	// configured maximum. A mid-stream overflow is not an error: the
	// partial bytes already read are returned as a successful result.
	ErrFilingTooLarge = errors.New("filing too large")

	// ErrTimeout means the fetch exceeded its wall-clock bound.
	ErrTimeout = errors.New("upstream request timed out")

	// ErrStoreFailure means the section store could not persist or read.
	ErrStoreFailure = errors.New("section store failure")
)
