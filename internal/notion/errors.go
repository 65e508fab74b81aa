package notion

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network, DNS and timeout failures.
	ErrTransport = errors.New("notion transport failure")
	// ErrUpstreamRejection is matched by every non-success response.
	ErrUpstreamRejection = errors.New("notion rejected the request")
	// ErrDecode is returned when a response body is not the expected JSON.
	ErrDecode = errors.New("decoding notion response")
)

// UpstreamError carries the status and the error object returned by the API.
type UpstreamError struct {
	StatusCode int
	Status     string
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s (%s: %s)", e.Status, e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRejection
}
