package debrid

import (
	"errors"
	"fmt"
)

// Sentinel errors for the debrid package.
var (
	// ErrInvalidMagnet is returned before any request when the input is not a magnet URI.
	ErrInvalidMagnet = errors.New("invalid magnet link")

	// ErrServiceRejected is matched by *APIError.
	ErrServiceRejected = errors.New("debrid service rejected request")

	// ErrTransport is matched by *TransportError.
	ErrTransport = errors.New("debrid service unreachable")

	// ErrAnomalousState is returned when a torrent reports downloaded with no links.
	ErrAnomalousState = errors.New("torrent downloaded without links")
)

// APIError is a structured rejection from the service (4xx). Message is the
// upstream text, passed through unchanged.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrServiceRejected
}

// TransportError is a network failure, timeout or 5xx response.
type TransportError struct {
	Op         string
	StatusCode int // 0 for network failures
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
