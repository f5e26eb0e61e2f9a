package alert

import "errors"

// Domain-specific errors for the alert pipeline.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedPayload is returned when a warning payload cannot be
	// parsed. The event is dropped without touching cooldown state.
	ErrMalformedPayload = errors.New("alert: malformed warning payload")

	// ErrInvalidDevice is returned when the topic carries no usable
	// device id (missing, empty, or the "unknown" sentinel).
	ErrInvalidDevice = errors.New("alert: missing or unknown device id")

	// ErrInvalidWindow is returned for a zero or negative cooldown window.
	ErrInvalidWindow = errors.New("alert: cooldown window must be positive")
)
