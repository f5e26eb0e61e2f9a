package telemetry

import (
	"testing"
	"time"

	"github.com/smarthive/core/internal/infrastructure/mqtt"
)

type recordedPoint struct {
	deviceID    string
	temperature float64
	humidity    float64
	gas         int
	ts          time.Time
}

type fakeWriter struct {
	points []recordedPoint
}

func (w *fakeWriter) WriteTelemetry(deviceID string, temperature, humidity float64, gas int, ts time.Time) {
	w.points = append(w.points, recordedPoint{deviceID, temperature, humidity, gas, ts})
}

type fakeSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
}

func (s *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	s.topic = topic
	s.handler = handler
	return nil
}

func testRecorder(t *testing.T) (*Recorder, *fakeWriter) {
	t.Helper()
	writer := &fakeWriter{}
	return NewRecorder(writer, mqtt.NewTopics("smart_home"), 0, nil), writer
}

func TestRecorder_Start(t *testing.T) {
	r, _ := testRecorder(t)

	sub := &fakeSubscriber{}
	if err := r.Start(sub); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sub.topic != "smart_home/+/telemetry" {
		t.Errorf("subscribed topic = %q, want smart_home/+/telemetry", sub.topic)
	}
}

func TestRecorder_RecordsReading(t *testing.T) {
	r, writer := testRecorder(t)

	payload := []byte(`{"temperature":21.5,"humidity":48.2,"gas":120,"timestamp":1756382400000}`)
	if err := r.handleMessage("smart_home/ctrl1/telemetry", payload); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if len(writer.points) != 1 {
		t.Fatalf("recorded %d points, want 1", len(writer.points))
	}

	p := writer.points[0]
	if p.deviceID != "ctrl1" {
		t.Errorf("device = %q, want ctrl1", p.deviceID)
	}
	if p.temperature != 21.5 || p.humidity != 48.2 || p.gas != 120 {
		t.Errorf("point = %+v", p)
	}
	want := time.UnixMilli(1756382400000).UTC()
	if !p.ts.Equal(want) {
		t.Errorf("ts = %v, want %v", p.ts, want)
	}
}

func TestRecorder_MissingTimestampFallsBackToNow(t *testing.T) {
	r, writer := testRecorder(t)

	before := time.Now().UTC()
	if err := r.handleMessage("smart_home/ctrl1/telemetry", []byte(`{"temperature":20,"humidity":50,"gas":80}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}
	after := time.Now().UTC()

	if len(writer.points) != 1 {
		t.Fatalf("recorded %d points, want 1", len(writer.points))
	}
	ts := writer.points[0].ts
	if ts.Before(before) || ts.After(after) {
		t.Errorf("ts = %v, want receipt time between %v and %v", ts, before, after)
	}
}

func TestRecorder_DropsBadInput(t *testing.T) {
	r, writer := testRecorder(t)

	cases := []struct {
		name    string
		topic   string
		payload string
	}{
		{"malformed json", "smart_home/ctrl1/telemetry", `not json`},
		{"wrong topic shape", "smart_home/telemetry", `{"temperature":20}`},
		{"foreign prefix", "other/ctrl1/telemetry", `{"temperature":20}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.handleMessage(tc.topic, []byte(tc.payload)); err != nil {
				t.Errorf("handleMessage() error = %v, want nil (drop, not fail)", err)
			}
		})
	}

	if len(writer.points) != 0 {
		t.Errorf("recorded %d points from bad input, want 0", len(writer.points))
	}
}
