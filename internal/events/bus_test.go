package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/events"
)

type captureStore struct {
	events []events.Event
}

func (c *captureStore) Append(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitDispatchesEvent(t *testing.T) {
	store := &captureStore{}
	notifier := &captureNotifier{}
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier, nil},
		Now:       func() time.Time { return fixed },
	}

	event, err := bus.Emit(context.Background(), events.TopicQuoteChanged, "session-1", map[string]any{"action": "ADD_ITEM"})
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.Equal(t, fixed, event.OccurredAt)
	require.Len(t, store.events, 1)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "ADD_ITEM", decoded["action"])
}

func TestEmitValidatesInput(t *testing.T) {
	var bus events.Bus
	_, err := bus.Emit(context.Background(), " ", "s", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicQuoteReset, "", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicQuoteReset, "s", "{broken")
	require.Error(t, err)

	ev, err := bus.Emit(context.Background(), events.TopicQuoteReset, "s", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(ev.Payload))
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	boom := errors.New("boom")
	called := 0
	bus := events.Bus{Notifiers: []events.Notifier{
		events.NotifierFunc(func(context.Context, events.Event) error { return boom }),
		events.NotifierFunc(func(context.Context, events.Event) error { called++; return nil }),
	}}
	ev, err := bus.Emit(context.Background(), events.TopicQuoteHydrated, "s", json.RawMessage(`{"ok":true}`))
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, called)
	require.Equal(t, events.TopicQuoteHydrated, ev.Topic)
}

func TestRedisStreamAppend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := events.Bus{Store: events.RedisStream{Client: client, Stream: "quote:events"}}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := bus.Emit(ctx, events.TopicQuoteChanged, "s-1", map[string]int{"n": i})
		require.NoError(t, err)
	}

	n, err := client.XLen(ctx, "quote:events").Result()
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	msgs, err := client.XRange(ctx, "quote:events", "-", "+").Result()
	require.NoError(t, err)
	require.Equal(t, events.TopicQuoteChanged, msgs[0].Values["topic"])
	require.Equal(t, "s-1", msgs[0].Values["session_id"])
}
