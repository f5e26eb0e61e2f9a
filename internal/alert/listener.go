package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smarthive/core/internal/infrastructure/mqtt"
)

// Subscriber is the interface the listener needs from the MQTT client.
type Subscriber interface {
	// Subscribe registers a handler for messages matching the topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// warningPayload is the structured content of a warning message.
// Unrecognised fields are ignored; a payload that is not a JSON object,
// or whose severity is neither string nor number, is malformed.
type warningPayload struct {
	AlertCategory string   `json:"alertCategory"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
}

// ListenerConfig contains the listener's tuning knobs.
type ListenerConfig struct {
	// Topics builds the warning subscription pattern and extracts
	// device ids from incoming topics.
	Topics mqtt.Topics

	// QoS is the subscription QoS level.
	QoS byte

	// Window is the cooldown suppression window (W).
	Window time.Duration

	// MaxConcurrent bounds the number of messages processed at once.
	MaxConcurrent int

	// CollaboratorTimeout bounds the recipient lookup and the push
	// provider call for a single event. A hung collaborator blocks
	// only that event's worker, never the cooldown store.
	CollaboratorTimeout time.Duration
}

// Listener subscribes to device warning events and drives the alert
// pipeline: parse → validate → cooldown check → resolve recipients →
// dispatch.
//
// Every failure is contained at the per-event boundary: a bad payload,
// an unreachable entitlement store, or a push provider outage affects
// only the event being processed. Only the loss of the underlying
// subscription is fatal, and reconnection is the MQTT client's job.
//
// Each message is handled on its own goroutine, gated by a semaphore so
// a burst of warnings cannot spawn unbounded work. Close stops admission
// and joins in-flight events, so shutdown drains rather than abandons.
type Listener struct {
	store      *CooldownStore
	resolver   Resolver
	dispatcher Dispatcher
	cfg        ListenerConfig
	logger     Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewListener creates a listener over the given collaborators.
// The cooldown store must be non-nil; it is owned by the caller and
// shared only with the janitor.
func NewListener(store *CooldownStore, resolver Resolver, dispatcher Dispatcher, cfg ListenerConfig, logger Logger) *Listener {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &Listener{
		store:      store,
		resolver:   resolver,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		sem:        make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Start subscribes to warning events from every device.
//
// The subscription survives broker reconnects (the MQTT client restores
// it); Start itself is called once at startup.
func (l *Listener) Start(sub Subscriber) error {
	return sub.Subscribe(l.cfg.Topics.AllDeviceWarnings(), l.cfg.QoS, l.handleMessage)
}

// Close stops admitting new messages and waits for in-flight event
// processing to finish. Disconnect the MQTT client first so no new
// deliveries race the drain.
func (l *Listener) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.wg.Wait()
}

// handleMessage admits one inbound message into the worker pool.
//
// The semaphore is acquired before spawning, so when MaxConcurrent
// events are in flight this blocks the delivering goroutine — natural
// backpressure against the broker rather than unbounded goroutines.
func (l *Listener) handleMessage(topic string, payload []byte) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.wg.Add(1)
	l.mu.Unlock()

	l.sem <- struct{}{}

	go func() {
		defer l.wg.Done()
		defer func() { <-l.sem }()
		l.process(topic, payload, time.Now().UTC())
	}()

	return nil
}

// process runs the pipeline for one message.
//
// The cooldown slot is reserved before the recipient lookup and is never
// given back: a resolution failure, an empty recipient list, or a
// provider outage all leave the window consumed, so the next warning of
// this category stays suppressed until the window elapses. This favours
// quiet failure over alert storms and mirrors device firmware
// expectations; the outcome log lines below are what makes the consumed
// window visible to operators.
func (l *Listener) process(topic string, payload []byte, receivedAt time.Time) {
	// Step 1: parse. Malformed payloads never touch cooldown state.
	var parsed warningPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		l.logger.Warn("warning dropped",
			"topic", topic,
			"error", fmt.Errorf("%w: %v", ErrMalformedPayload, err),
		)
		return
	}

	// Step 2: device id from the topic. The "unknown" sentinel means an
	// unprovisioned controller; nothing can be resolved for it.
	deviceID, ok := l.cfg.Topics.DeviceID(topic)
	if !ok || deviceID == DeviceUnknown {
		l.logger.Warn("warning dropped",
			"topic", topic,
			"error", ErrInvalidDevice,
		)
		return
	}

	category := strings.TrimSpace(parsed.AlertCategory)
	if category == "" {
		category = CategoryUnknown
	}

	event := Event{
		ID:         "evt-" + uuid.NewString()[:8],
		DeviceID:   deviceID,
		Category:   category,
		Severity:   parsed.Severity,
		Message:    parsed.Message,
		ReceivedAt: receivedAt,
	}

	// Step 3: atomic cooldown check-and-reserve. Suppression is the
	// expected frequent path; keep it quiet.
	allowed, remaining, err := l.store.CheckAndReserve(deviceID, category, receivedAt, l.cfg.Window)
	if err != nil {
		l.logger.Error("cooldown check failed",
			"event_id", event.ID,
			"device_id", deviceID,
			"category", category,
			"error", err,
		)
		return
	}
	if !allowed {
		l.logger.Debug("alert suppressed",
			"event_id", event.ID,
			"device_id", deviceID,
			"category", category,
			"remaining", remaining,
		)
		return
	}

	// The store lock is released; the external calls below run under
	// their own bounded deadline.
	ctx, cancel := context.WithTimeout(context.Background(), l.collaboratorTimeout())
	defer cancel()

	// Step 4: resolve recipients fresh for this event.
	recipients, err := l.resolver.Resolve(ctx, deviceID)
	if err != nil {
		l.logger.Error("recipient resolution failed, window remains consumed",
			"event_id", event.ID,
			"device_id", deviceID,
			"category", category,
			"error", err,
		)
		return
	}

	// Step 5: dispatch, unless nobody is entitled.
	if len(recipients) == 0 {
		l.logger.Info("no entitled recipients, notification skipped",
			"event_id", event.ID,
			"device_id", deviceID,
			"category", category,
		)
		return
	}

	l.logger.Info("dispatching alert",
		"event_id", event.ID,
		"device_id", deviceID,
		"category", category,
		"recipients", len(recipients),
	)

	result, err := l.dispatcher.Dispatch(ctx, recipients, event)
	if err != nil {
		l.logger.Error("dispatch failed, window remains consumed",
			"event_id", event.ID,
			"device_id", deviceID,
			"category", category,
			"error", err,
		)
		return
	}

	// Step 6: outcome. Partial failures are best-effort by design and
	// only logged.
	if result.Failed > 0 {
		l.logger.Warn("alert dispatched with failures",
			"event_id", event.ID,
			"device_id", deviceID,
			"category", category,
			"attempted", result.Attempted,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
		)
		return
	}

	l.logger.Info("alert dispatched",
		"event_id", event.ID,
		"device_id", deviceID,
		"category", category,
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
	)
}

func (l *Listener) collaboratorTimeout() time.Duration {
	if l.cfg.CollaboratorTimeout <= 0 {
		return 30 * time.Second
	}
	return l.cfg.CollaboratorTimeout
}
