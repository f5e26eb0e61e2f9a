package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CategoryUnknown is the category assigned to warning events that omit
// alertCategory. Distinct from the device-id sentinel "unknown", which
// invalidates the whole event.
const CategoryUnknown = "UNKNOWN"

// DeviceUnknown is the sentinel device id used by controllers that have
// not been provisioned. Events carrying it are dropped before resolution.
const DeviceUnknown = "unknown"

// alertTitles maps well-known alert categories to notification titles.
var alertTitles = map[string]string{
	"FIRE":      "Fire alarm",
	"GAS":       "Gas leak warning",
	"INTRUSION": "Intrusion alert",
}

// defaultTitle is used for categories without a dedicated title.
const defaultTitle = "System alert"

// defaultBody is used when the event carries no message text.
const defaultBody = "Unusual activity detected by device"

// TitleFor returns the notification title for an alert category.
func TitleFor(category string) string {
	if title, ok := alertTitles[category]; ok {
		return title
	}
	return defaultTitle
}

// Severity is the opaque severity value carried by a warning event.
// Devices send it as either a string or a number; both are normalised
// to a string for pass-through to the push payload.
type Severity string

// UnmarshalJSON accepts a JSON string or number. Anything else is a
// parse error for the whole payload.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Severity(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = Severity(num.String())
		return nil
	}

	return fmt.Errorf("severity must be a string or number, got %s", data)
}

// Event is one inbound warning, alive only for the duration of its
// pipeline pass. It is never persisted.
type Event struct {
	// ID is a per-event correlation id for log lines.
	ID string

	// DeviceID is the controller key extracted from the topic.
	DeviceID string

	// Category is the alert category (FIRE, GAS, ...), CategoryUnknown
	// if the payload omitted it.
	Category string

	// Severity is passed through to recipients unmodified.
	Severity Severity

	// Message is the free-text description from the device.
	Message string

	// ReceivedAt is the ingestion timestamp.
	ReceivedAt time.Time
}

// Body returns the notification body text for the event.
func (e Event) Body() string {
	if e.Message == "" {
		return defaultBody
	}
	return e.Message
}

// Recipient is one user entitled to receive alerts for a device.
type Recipient struct {
	UserID    string
	PushToken string
}

// TokenFailure records why one push token was rejected by the provider.
type TokenFailure struct {
	Token  string
	Reason string
}

// DispatchResult summarises one multicast send. Logged and discarded.
type DispatchResult struct {
	Attempted int
	Succeeded int
	Failed    int

	// Failures holds per-token failure reasons, when the provider
	// reports them. Partial failures are recorded here, not retried.
	Failures []TokenFailure
}

// Resolver returns the users currently entitled to alerts for a device.
// Implementations must resolve fresh per call; entitlement may change
// between alerts.
type Resolver interface {
	Resolve(ctx context.Context, deviceID string) ([]Recipient, error)
}

// Dispatcher delivers one alert to a set of recipients with a single
// multicast call. Partial failures are reported in the DispatchResult;
// only a total provider failure returns an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []Recipient, event Event) (DispatchResult, error)
}

// Logger is the minimal logging interface the alert pipeline needs.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
