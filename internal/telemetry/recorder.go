package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smarthive/core/internal/infrastructure/mqtt"
)

// PointWriter is the slice of the InfluxDB client the recorder uses.
type PointWriter interface {
	WriteTelemetry(deviceID string, temperature, humidity float64, gas int, ts time.Time)
}

// Logger is the minimal logging interface the recorder needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// reading is the telemetry payload published by device controllers.
// Timestamp is milliseconds since the Unix epoch (device clock).
type reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Gas         int     `json:"gas"`
	Timestamp   int64   `json:"timestamp"`
}

// Recorder subscribes to device telemetry and forwards readings to the
// time-series store. Purely observational: nothing in the alert path
// depends on it, and a write failure costs one data point.
type Recorder struct {
	writer PointWriter
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewRecorder creates a telemetry recorder.
func NewRecorder(writer PointWriter, topics mqtt.Topics, qos byte, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		writer: writer,
		topics: topics,
		qos:    qos,
		logger: logger,
	}
}

// Subscriber matches the MQTT client's Subscribe method.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Start subscribes to telemetry from every device.
func (r *Recorder) Start(sub Subscriber) error {
	return sub.Subscribe(r.topics.AllDeviceTelemetry(), r.qos, r.handleMessage)
}

// handleMessage parses and records one telemetry reading. The write API
// batches asynchronously, so this never blocks the MQTT delivery path.
func (r *Recorder) handleMessage(topic string, payload []byte) error {
	deviceID, ok := r.topics.DeviceID(topic)
	if !ok {
		r.logger.Warn("telemetry dropped, unrecognised topic", "topic", topic)
		return nil
	}

	var rd reading
	if err := json.Unmarshal(payload, &rd); err != nil {
		r.logger.Warn("telemetry dropped, malformed payload",
			"topic", topic,
			"error", fmt.Errorf("parsing reading: %w", err),
		)
		return nil
	}

	// Controllers with an unsynced clock send 0; fall back to receipt time.
	ts := time.Now().UTC()
	if rd.Timestamp > 0 {
		ts = time.UnixMilli(rd.Timestamp).UTC()
	}

	r.writer.WriteTelemetry(deviceID, rd.Temperature, rd.Humidity, rd.Gas, ts)

	r.logger.Debug("telemetry recorded",
		"device_id", deviceID,
		"temperature", rd.Temperature,
		"humidity", rd.Humidity,
		"gas", rd.Gas,
	)
	return nil
}
