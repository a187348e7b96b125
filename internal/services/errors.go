package services

import "errors"

// Sentinel errors for the failure taxonomy. Handlers map these onto status
// codes: ErrBadInput → 400, ErrNotFound → 404, ErrUpstream → 502.
var (
	// ErrBadInput marks user-correctable input (malformed URL/URI/ID).
	ErrBadInput = errors.New("unrecognized track input")

	// ErrNotFound marks an expected upstream absence, not a fault.
	ErrNotFound = errors.New("track not found")

	// ErrUpstream marks catalog or aggregation failures (5xx, timeout,
	// malformed body). Retried at the next scheduled pass, not inline.
	ErrUpstream = errors.New("upstream service failure")
)

// PlatformError carries the context of a failed platform operation.
type PlatformError struct {
	Platform  string
	Operation string
	Message   string
	URL       string
	Err       error
}

func (e *PlatformError) Error() string {
	msg := e.Platform + " " + e.Operation + " failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.URL != "" {
		msg += " (URL: " + e.URL + ")"
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}
