package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events and returns a func that removes them.
func (n *NotificationService) RegisterHandlers() func() {
	if n.dispatcher == nil {
		return func() {}
	}
	unsubs := []func(){
		n.dispatcher.Subscribe(events.EventIncidentRegistered, n.handleIncidentRegistered),
		n.dispatcher.Subscribe(events.EventIncidentAssigned, n.handleIncidentAssigned),
		n.dispatcher.Subscribe(events.EventIncidentDeferred, n.handleStatusChanged),
		n.dispatcher.Subscribe(events.EventIncidentResolved, n.handleStatusChanged),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (n *NotificationService) handleIncidentRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("IncidentRegistered", zap.Int64("incident_id", event.IncidentID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// handleIncidentAssigned tells the technician about new work.
func (n *NotificationService) handleIncidentAssigned(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.Int64("incident_id", event.IncidentID)}
	if payload, ok := event.Payload.(events.IncidentStatusChangedPayload); ok && payload.TechnicianID != nil {
		fields = append(fields, zap.Int64("technician_id", *payload.TechnicianID))
	}
	n.logger.Info("IncidentAssigned", fields...)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// handleStatusChanged tells the reporter their incident moved.
func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.Int64("incident_id", event.IncidentID), zap.String("event_type", string(event.Type))}
	if payload, ok := event.Payload.(events.IncidentStatusChangedPayload); ok {
		fields = append(fields, zap.String("reporter", payload.Reporter), zap.String("status", string(payload.NewStatus)))
	}
	n.logger.Info("IncidentStatusChanged", fields...)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("incident_id", event.IncidentID),
		zap.String("event_type", string(event.Type)))
}
