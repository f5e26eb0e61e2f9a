package notify

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"github.com/smarthive/core/internal/alert"
)

// fakeSender records the multicast message and returns a canned response.
type fakeSender struct {
	msg  *messaging.MulticastMessage
	resp *messaging.BatchResponse
	err  error
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.msg = message
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testRecipients() []alert.Recipient {
	return []alert.Recipient{
		{UserID: "u1", PushToken: "tok1"},
		{UserID: "u2", PushToken: "tok2"},
	}
}

func testEvent() alert.Event {
	return alert.Event{
		ID:       "evt-1234abcd",
		DeviceID: "ctrl1",
		Category: "GAS",
		Severity: "high",
		Message:  "gas level critical",
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	sender := &fakeSender{
		resp: &messaging.BatchResponse{
			SuccessCount: 2,
			Responses: []*messaging.SendResponse{
				{Success: true},
				{Success: true},
			},
		},
	}
	d := &Dispatcher{sender: sender, channelID: "smart_home_alerts"}

	result, err := d.Dispatch(context.Background(), testRecipients(), testEvent())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if result.Attempted != 2 || result.Succeeded != 2 || result.Failed != 0 {
		t.Errorf("result = %+v, want 2 attempted, 2 succeeded", result)
	}

	msg := sender.msg
	if msg == nil {
		t.Fatal("no message sent")
	}
	if len(msg.Tokens) != 2 || msg.Tokens[0] != "tok1" || msg.Tokens[1] != "tok2" {
		t.Errorf("tokens = %v, want [tok1 tok2]", msg.Tokens)
	}
	if msg.Notification.Title != "Gas leak warning" {
		t.Errorf("title = %q, want Gas leak warning", msg.Notification.Title)
	}
	if msg.Notification.Body != "gas level critical" {
		t.Errorf("body = %q", msg.Notification.Body)
	}
	if msg.Android == nil || msg.Android.Priority != "high" {
		t.Error("android priority should be high")
	}
	if msg.Android.Notification.ChannelID != "smart_home_alerts" {
		t.Errorf("channel = %q, want smart_home_alerts", msg.Android.Notification.ChannelID)
	}
	if msg.Data["click_action"] != "FLUTTER_NOTIFICATION_CLICK" {
		t.Errorf("click_action = %q", msg.Data["click_action"])
	}
	if msg.Data["alertCategory"] != "GAS" || msg.Data["severity"] != "high" || msg.Data["deviceId"] != "ctrl1" {
		t.Errorf("data = %v", msg.Data)
	}
}

func TestDispatcher_DefaultTitleAndBody(t *testing.T) {
	sender := &fakeSender{resp: &messaging.BatchResponse{SuccessCount: 1}}
	d := &Dispatcher{sender: sender, channelID: "smart_home_alerts"}

	event := alert.Event{DeviceID: "ctrl1", Category: "VIBRATION"}
	if _, err := d.Dispatch(context.Background(), testRecipients()[:1], event); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if sender.msg.Notification.Title != "System alert" {
		t.Errorf("title = %q, want System alert fallback", sender.msg.Notification.Title)
	}
	if sender.msg.Notification.Body != "Unusual activity detected by device" {
		t.Errorf("body = %q, want default body", sender.msg.Notification.Body)
	}
}

func TestDispatcher_PartialFailure(t *testing.T) {
	sender := &fakeSender{
		resp: &messaging.BatchResponse{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []*messaging.SendResponse{
				{Success: true},
				{Success: false, Error: errors.New("registration-token-not-registered")},
			},
		},
	}
	d := &Dispatcher{sender: sender, channelID: "smart_home_alerts"}

	result, err := d.Dispatch(context.Background(), testRecipients(), testEvent())
	if err != nil {
		t.Fatalf("Dispatch() error = %v (partial failure must not error)", err)
	}

	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 succeeded, 1 failed", result)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	if result.Failures[0].Token != "tok2" {
		t.Errorf("failed token = %q, want tok2", result.Failures[0].Token)
	}
	if result.Failures[0].Reason != "registration-token-not-registered" {
		t.Errorf("failure reason = %q", result.Failures[0].Reason)
	}
}

func TestDispatcher_ProviderFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	d := &Dispatcher{sender: sender, channelID: "smart_home_alerts"}

	_, err := d.Dispatch(context.Background(), testRecipients(), testEvent())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Dispatch() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestDispatcher_NoRecipients(t *testing.T) {
	sender := &fakeSender{}
	d := &Dispatcher{sender: sender, channelID: "smart_home_alerts"}

	result, err := d.Dispatch(context.Background(), nil, testEvent())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Attempted != 0 {
		t.Errorf("attempted = %d, want 0", result.Attempted)
	}
	if sender.msg != nil {
		t.Error("no message should be sent for zero recipients")
	}
}
