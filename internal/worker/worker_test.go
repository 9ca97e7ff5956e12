package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/service"
)

func TestStartNotificationWorker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{})

	stop := StartNotificationWorker(notifications)

	tech := int64(4)
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:       events.EventIncidentAssigned,
		IncidentID: 1,
		Payload:    events.IncidentStatusChangedPayload{TechnicianID: &tech},
	}))
	entries := logs.FilterMessage("IncidentAssigned").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["technician_id"])

	stop()
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventIncidentAssigned}))
	assert.Len(t, logs.FilterMessage("IncidentAssigned").All(), 1)
}

func TestStartWorkers_NilSafe(t *testing.T) {
	StartNotificationWorker(nil)()
	StartEventBridge(context.Background(), nil, zap.NewNop())()
}
