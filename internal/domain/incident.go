package domain

import "time"

// IncidentStatus enumerates lifecycle states. Values match the Incidente.estado column.
type IncidentStatus string

const (
	StatusUnattended IncidentStatus = "Sin atender"
	StatusAssigned   IncidentStatus = "Asignado"
	StatusDeferred   IncidentStatus = "Pendiente"
	StatusResolved   IncidentStatus = "Solucionado"
)

// Valid reports whether s is a known status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusUnattended, StatusAssigned, StatusDeferred, StatusResolved:
		return true
	}
	return false
}

// HasTechnician reports whether an incident in status s must carry a technician.
func (s IncidentStatus) HasTechnician() bool {
	return s == StatusAssigned || s == StatusDeferred || s == StatusResolved
}

// transitions lists the allowed source statuses for each target.
var transitions = map[IncidentStatus][]IncidentStatus{
	StatusAssigned: {StatusUnattended},
	StatusDeferred: {StatusAssigned},
	StatusResolved: {StatusAssigned, StatusDeferred},
}

// SourcesFor returns the statuses an incident may move to target from.
func SourcesFor(target IncidentStatus) []IncidentStatus {
	return append([]IncidentStatus(nil), transitions[target]...)
}

// CanTransition reports whether from -> to is a permitted lifecycle move.
func CanTransition(from, to IncidentStatus) bool {
	for _, src := range transitions[to] {
		if src == from {
			return true
		}
	}
	return false
}

// Incident is a reported equipment issue.
type Incident struct {
	ID            int64
	Reporter      string
	Area          string
	Description   string
	Status        IncidentStatus
	TechnicianID  *int64
	EquipmentCode string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Same reports whether two incidents carry identical visible state.
func (i Incident) Same(o Incident) bool {
	if i.ID != o.ID || i.Reporter != o.Reporter || i.Area != o.Area ||
		i.Description != o.Description || i.Status != o.Status ||
		i.EquipmentCode != o.EquipmentCode {
		return false
	}
	if (i.TechnicianID == nil) != (o.TechnicianID == nil) {
		return false
	}
	return i.TechnicianID == nil || *i.TechnicianID == *o.TechnicianID
}
