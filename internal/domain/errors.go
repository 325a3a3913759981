package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested record does not exist locally
	ErrNotFound = errors.New("not found")

	// ErrInvalidKey indicates a malformed verse key or chapter id
	ErrInvalidKey = errors.New("invalid verse key")

	// ErrCredentials indicates the client-credentials exchange failed
	ErrCredentials = errors.New("client credentials rejected")

	// ErrTokenExpired indicates the content API rejected the token as expired
	ErrTokenExpired = errors.New("access token expired")

	// ErrUnauthorized indicates a request stayed unauthorized after a forced refresh
	ErrUnauthorized = errors.New("content request unauthorized")

	// ErrContentFetch indicates a content request failed (network, status or decode)
	ErrContentFetch = errors.New("content fetch failed")

	// ErrServerOffline indicates the content API is unreachable
	ErrServerOffline = errors.New("content server is unreachable")

	// ErrAudioDownload indicates an audio file could not be downloaded
	ErrAudioDownload = errors.New("audio download failed")
)

// StatusError carries the status of a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// Unwrap classifies every status failure as a content-fetch failure.
func (e *StatusError) Unwrap() error { return ErrContentFetch }
