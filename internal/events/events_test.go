package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventReservationCreated, func(e *Event) error {
		received = append(received, e)
		return nil
	})

	payload := ReservationEventPayload{
		ReservationID: "r1",
		TableID:       "t1",
		CustomerName:  "Ada Lovelace",
		PartySize:     4,
		StartTime:     time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC),
		Status:        "confirmed",
	}

	err := bus.PublishJSON(EventReservationCreated, payload)
	require.NoError(t, err)
	require.Len(t, received, 1)

	var got ReservationEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, payload, got)
	assert.False(t, received[0].CreatedAt.IsZero())
}

func TestPublishOnlyMatchingType(t *testing.T) {
	bus := NewEventBus()

	created := 0
	deleted := 0
	bus.Subscribe(EventReservationCreated, func(*Event) error { created++; return nil })
	bus.Subscribe(EventReservationDeleted, func(*Event) error { deleted++; return nil })

	require.NoError(t, bus.PublishJSON(EventReservationDeleted, ReservationEventPayload{ReservationID: "r1"}))
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, deleted)
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventReservationUpdated, func(*Event) error { return errors.New("boom") })
	bus.Subscribe(EventReservationUpdated, func(*Event) error { called = true; return nil })

	require.NoError(t, bus.PublishJSON(EventReservationUpdated, ReservationEventPayload{}))
	assert.True(t, called)
}

func TestNilBusPublishIsNoOp(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventReservationCreated, ReservationEventPayload{}))
}
