package domain

import "time"

// IncidentHistory is an immutable audit trail entry for one lifecycle move.
type IncidentHistory struct {
	ID           int64
	IncidentID   int64
	ActorID      *int64
	FromStatus   *IncidentStatus
	ToStatus     IncidentStatus
	TechnicianID *int64
	CreatedAt    time.Time
}
