package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentRegistered EventType = "incident_registered"
	EventIncidentAssigned   EventType = "incident_assigned"
	EventIncidentDeferred   EventType = "incident_deferred"
	EventIncidentResolved   EventType = "incident_resolved"
	EventUserCreated        EventType = "user_created"
)

// IncidentEventTypes lists every event that changes an incident row.
var IncidentEventTypes = []EventType{
	EventIncidentRegistered,
	EventIncidentAssigned,
	EventIncidentDeferred,
	EventIncidentResolved,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *int64      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	IncidentID int64     `json:"incident_id,omitempty"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
	// Origin names the process that produced the event; empty for local events.
	Origin string `json:"origin,omitempty"`
}

// IncidentRegisteredPayload payload.
type IncidentRegisteredPayload struct {
	Reporter      string `json:"reporter"`
	Area          string `json:"area"`
	EquipmentCode string `json:"equipment_code"`
}

// IncidentStatusChangedPayload is shared by assign, defer and resolve events.
type IncidentStatusChangedPayload struct {
	OldStatus    domain.IncidentStatus `json:"old_status"`
	NewStatus    domain.IncidentStatus `json:"new_status"`
	TechnicianID *int64                `json:"technician_id,omitempty"`
	Reporter     string                `json:"reporter"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Marshal encodes an event for transport.
func Marshal(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// Unmarshal decodes an event, restoring the typed payload for known types.
func Unmarshal(data []byte) (Event, error) {
	var envelope struct {
		Event
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Event{}, err
	}
	event := envelope.Event

	var target any
	switch event.Type {
	case EventIncidentRegistered:
		target = &IncidentRegisteredPayload{}
	case EventIncidentAssigned, EventIncidentDeferred, EventIncidentResolved:
		target = &IncidentStatusChangedPayload{}
	case EventUserCreated:
		target = &UserCreatedPayload{}
	default:
		return Event{}, fmt.Errorf("unknown event type %q", event.Type)
	}
	if len(envelope.Payload) > 0 && string(envelope.Payload) != "null" {
		if err := json.Unmarshal(envelope.Payload, target); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
	}
	switch p := target.(type) {
	case *IncidentRegisteredPayload:
		event.Payload = *p
	case *IncidentStatusChangedPayload:
		event.Payload = *p
	case *UserCreatedPayload:
		event.Payload = *p
	}
	return event, nil
}
