package mqtt

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the root of the SmartHive topic tree when no prefix
// is configured. Device controllers publish under this prefix.
const DefaultPrefix = "smart_home"

// deviceTopicParts is the number of segments in a device topic:
// {prefix}/{device_id}/{kind}
const deviceTopicParts = 3

// Topics builds SmartHive MQTT topics for a given prefix.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Device topics follow the scheme: {prefix}/{device_id}/{kind}
//
//	topics := mqtt.NewTopics("smart_home")
//	warn := topics.DeviceWarning("controller-01")
//	// Returns: "smart_home/controller-01/warning"
type Topics struct {
	// Prefix is the topic tree root. Empty means DefaultPrefix.
	Prefix string
}

// NewTopics returns a Topics builder for the given prefix.
// An empty prefix falls back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	return Topics{Prefix: prefix}
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return t.Prefix
}

// DeviceWarning returns the alert topic for a device controller.
//
// Example: smart_home/controller-01/warning
func (t Topics) DeviceWarning(deviceID string) string {
	return fmt.Sprintf("%s/%s/warning", t.prefix(), deviceID)
}

// DeviceTelemetry returns the sensor readings topic for a device controller.
//
// Example: smart_home/controller-01/telemetry
func (t Topics) DeviceTelemetry(deviceID string) string {
	return fmt.Sprintf("%s/%s/telemetry", t.prefix(), deviceID)
}

// SystemStatus returns the core online/offline status topic.
// Used for the LWT and graceful shutdown announcements.
//
// Example: smart_home/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}

// AllDeviceWarnings returns a pattern matching warnings from every device.
//
// Pattern: smart_home/+/warning
func (t Topics) AllDeviceWarnings() string {
	return fmt.Sprintf("%s/+/warning", t.prefix())
}

// AllDeviceTelemetry returns a pattern matching telemetry from every device.
//
// Pattern: smart_home/+/telemetry
func (t Topics) AllDeviceTelemetry() string {
	return fmt.Sprintf("%s/+/telemetry", t.prefix())
}

// DeviceID extracts the device identifier from a device topic.
//
// The boolean result is false when the topic does not have the expected
// {prefix}/{device_id}/{kind} shape or the device segment is empty.
// Note this performs no validity check beyond shape: the "unknown"
// sentinel is the caller's concern.
func (t Topics) DeviceID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != deviceTopicParts || parts[0] != t.prefix() {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
