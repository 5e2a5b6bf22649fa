package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventAttendanceMarked, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventAttendanceReviewed, func(_ context.Context, e Event) error {
		t.Fatalf("unexpected delivery of %s", e.Type)
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventAttendanceMarked, "u1", Actor{UserID: "u1"}, time.Now(), nil))
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventAttendanceMarked}, got)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventUserOnboarded, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventUserOnboarded, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventUserOnboarded, "u2", Actor{}, time.Now(), nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNewEventAssignsUniqueIDs(t *testing.T) {
	a := NewEvent(EventAttendanceMarked, "x", Actor{}, time.Now(), nil)
	b := NewEvent(EventAttendanceMarked, "x", Actor{}, time.Now(), nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
