// Package apierr provides shared error sentinels and retry infrastructure
// for the transcription API client. Provider-specific error types are
// classified into these sentinels at the adapter boundary.
//
// Providers map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc., or use
// IsTransient to decide whether an operation is worth retrying.
package apierr

import "errors"

// Transient sentinels: the same request may succeed if repeated.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrServer indicates a 5xx-class server error.
	ErrServer = errors.New("server error")
)

// Permanent sentinels: repeating the same request cannot succeed.
var (
	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrPayloadTooLarge indicates the request body exceeds the API's size cap.
	// A chunk that triggers this was mis-estimated; resubmitting it cannot help.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")
)

// IsTransient reports whether err is worth retrying.
// Context cancellation is never transient: the caller gave up.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}

// IsPermanent reports whether err is a terminal, non-retryable API failure.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrBadRequest)
}
