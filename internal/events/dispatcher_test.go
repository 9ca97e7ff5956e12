package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/fixpoint/internal/domain"
)

func TestDispatcher_PublishAndUnsubscribe(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType

	cancel := d.Subscribe(EventIncidentAssigned, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIncidentAssigned}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIncidentResolved}))
	assert.Equal(t, []EventType{EventIncidentAssigned}, got)

	cancel()
	cancel()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIncidentAssigned}))
	assert.Len(t, got, 1)
}

func TestDispatcher_RunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	d.Subscribe(EventIncidentDeferred, func(context.Context, Event) error {
		calls++
		return errors.New("first")
	})
	d.Subscribe(EventIncidentDeferred, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIncidentDeferred})
	assert.EqualError(t, err, "first")
	assert.Equal(t, 2, calls)
}

func TestSubscribeMany(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	cancel := SubscribeMany(d, IncidentEventTypes, func(context.Context, Event) error {
		calls++
		return nil
	})
	for _, typ := range IncidentEventTypes {
		require.NoError(t, d.Publish(context.Background(), Event{Type: typ}))
	}
	assert.Equal(t, len(IncidentEventTypes), calls)

	cancel()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIncidentRegistered}))
	assert.Equal(t, len(IncidentEventTypes), calls)
}

func TestUnmarshal_RestoresTypedPayload(t *testing.T) {
	tech := int64(7)
	actor := int64(1)
	in := Event{
		ID:         "evt-1",
		Type:       EventIncidentAssigned,
		IncidentID: 3,
		Actor:      Actor{UserID: &actor, Role: domain.RoleChief},
		Timestamp:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Payload: IncidentStatusChangedPayload{
			OldStatus:    domain.StatusUnattended,
			NewStatus:    domain.StatusAssigned,
			TechnicianID: &tech,
			Reporter:     "user1",
		},
		Origin: "node-a",
	}

	data, err := Marshal(in)
	require.NoError(t, err)
	out, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.IncidentID, out.IncidentID)
	assert.Equal(t, "node-a", out.Origin)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
	payload, ok := out.Payload.(IncidentStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.StatusAssigned, payload.NewStatus)
	require.NotNil(t, payload.TechnicianID)
	assert.Equal(t, int64(7), *payload.TechnicianID)
}

func TestUnmarshal_RejectsUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"incident_reopened","payload":{}}`))
	assert.Error(t, err)
	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}
