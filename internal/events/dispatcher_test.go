package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishReachesAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTokenRevoked, func(_ context.Context, e Event) error {
		calls = append(calls, "first")
		return errors.New("audit sink down")
	})
	d.Subscribe(EventTokenRevoked, func(_ context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTokensIssued, func(_ context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTokenRevoked, BusinessID: "biz-1"})
	require.Error(t, err)
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRemindersSent}))
}
