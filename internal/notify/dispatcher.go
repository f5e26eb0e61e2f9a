package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/smarthive/core/internal/alert"
	"github.com/smarthive/core/internal/infrastructure/config"
)

// multicastSender is the slice of the FCM messaging client the
// dispatcher uses. Narrowed to an interface so tests can substitute a
// fake without Firebase credentials.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Dispatcher delivers alerts as FCM multicast push notifications.
// It implements alert.Dispatcher.
//
// Delivery is best-effort: one multicast call per alert, no retries.
// Per-token rejections (stale tokens, uninstalled apps) are reported in
// the DispatchResult and otherwise ignored; token hygiene belongs to
// the mobile backend that registered them.
type Dispatcher struct {
	sender    multicastSender
	channelID string
}

// New creates a dispatcher backed by Firebase Cloud Messaging.
//
// Parameters:
//   - ctx: Context for the Firebase handshake
//   - cfg: Firebase configuration (service account credentials path,
//     Android notification channel)
//
// Returns:
//   - *Dispatcher: Ready to dispatch
//   - error: ErrProviderUnavailable if the Firebase app or messaging
//     client cannot be initialised
func New(ctx context.Context, cfg config.Firebase) (*Dispatcher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: initialising firebase app: %v", ErrProviderUnavailable, err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: initialising messaging client: %v", ErrProviderUnavailable, err)
	}

	return &Dispatcher{
		sender:    client,
		channelID: cfg.AndroidChannelID,
	}, nil
}

// Dispatch sends one multicast notification covering every recipient.
//
// The notification body comes from the event; the data map carries the
// machine-readable fields the mobile app routes on. Only a total
// provider failure returns an error; individual token rejections are
// folded into the result.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []alert.Recipient, event alert.Event) (alert.DispatchResult, error) {
	if len(recipients) == 0 {
		return alert.DispatchResult{}, nil
	}

	tokens := make([]string, len(recipients))
	for i, r := range recipients {
		tokens[i] = r.PushToken
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: alert.TitleFor(event.Category),
			Body:  event.Body(),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: d.channelID,
			},
		},
		Data: map[string]string{
			"click_action":  "FLUTTER_NOTIFICATION_CLICK",
			"alertCategory": event.Category,
			"severity":      string(event.Severity),
			"deviceId":      event.DeviceID,
		},
	}

	resp, err := d.sender.SendEachForMulticast(ctx, msg)
	if err != nil {
		return alert.DispatchResult{}, fmt.Errorf("%w: multicast send: %v", ErrProviderUnavailable, err)
	}

	result := alert.DispatchResult{
		Attempted: len(tokens),
		Succeeded: resp.SuccessCount,
		Failed:    resp.FailureCount,
	}
	for i, r := range resp.Responses {
		if r.Success || i >= len(tokens) {
			continue
		}
		reason := "unknown"
		if r.Error != nil {
			reason = r.Error.Error()
		}
		result.Failures = append(result.Failures, alert.TokenFailure{
			Token:  tokens[i],
			Reason: reason,
		})
	}

	return result, nil
}
