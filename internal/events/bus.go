package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is a quote lifecycle event.
type Event struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	SessionID  string          `json:"sessionId"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// EventStore records emitted events.
type EventStore interface {
	Append(ctx context.Context, event Event) error
}

// Notifier reacts to emitted events (e.g. logging, metrics, etc.).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus records events and fans them out to downstream handlers. Every field is optional.
type Bus struct {
	Store     EventStore
	Notifiers []Notifier
	Now       func() time.Time
}

// Emit builds the event and dispatches it to the store and all notifiers.
// Handler failures are joined; the event is returned either way.
func (b *Bus) Emit(ctx context.Context, topic, sessionID string, payload any) (Event, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return Event{}, errors.New("events: session id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		SessionID:  sessionID,
		Payload:    encoded,
		OccurredAt: b.now().UTC(),
	}
	if b == nil {
		return ev, nil
	}
	var joined error
	if b.Store != nil {
		if storeErr := b.Store.Append(ctx, ev); storeErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: persist event: %w", storeErr))
		}
	}
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return ev, joined
}

func (b *Bus) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// LogNotifier writes each event as a debug log line.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(_ context.Context, event Event) error {
	l.Logger.Debug().
		Str("event_id", event.ID).
		Str("topic", event.Topic).
		Str("session_id", event.SessionID).
		RawJSON("payload", event.Payload).
		Msg("quote_event")
	return nil
}

func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	switch v := payload.(type) {
	case []byte:
		return validJSON(v)
	case json.RawMessage:
		return validJSON(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return []byte("{}"), nil
		}
		return validJSON([]byte(v))
	default:
		return json.Marshal(v)
	}
}

func validJSON(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(v) {
		return nil, errors.New("payload is not valid json")
	}
	return append([]byte(nil), v...), nil
}
