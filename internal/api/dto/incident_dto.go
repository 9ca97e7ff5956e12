package dto

import (
	"time"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// IncidentCreateRequest payload for reporting an incident. The reporter is
// the authenticated user.
type IncidentCreateRequest struct {
	Area          string `json:"area" validate:"notblank,max=200"`
	Description   string `json:"description" validate:"notblank,max=2000"`
	EquipmentCode string `json:"equipment_code" validate:"notblank,max=100"`
}

// AssignRequest payload for assigning a technician.
type AssignRequest struct {
	TechnicianID int64 `json:"technician_id" validate:"gt=0"`
}

// ResolveRequest payload for resolving an incident.
type ResolveRequest struct {
	Description string `json:"description" validate:"notblank,max=2000"`
}

// TechnicianListQuery is the query string of the technician views.
type TechnicianListQuery struct {
	Status string `query:"status" json:"status" validate:"required,oneof=Asignado Pendiente"`
}

// IncidentResponse is the public view of an incident.
type IncidentResponse struct {
	ID            int64                 `json:"id"`
	Reporter      string                `json:"reporter"`
	Area          string                `json:"area"`
	Description   string                `json:"description"`
	Status        domain.IncidentStatus `json:"status"`
	TechnicianID  *int64                `json:"technician_id"`
	EquipmentCode string                `json:"equipment_code"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// HistoryEntryResponse is one audit row.
type HistoryEntryResponse struct {
	ID           int64                  `json:"id"`
	ActorID      *int64                 `json:"actor_id"`
	FromStatus   *domain.IncidentStatus `json:"from_status"`
	ToStatus     domain.IncidentStatus  `json:"to_status"`
	TechnicianID *int64                 `json:"technician_id"`
	CreatedAt    time.Time              `json:"created_at"`
}

// NewIncidentResponse converts an incident.
func NewIncidentResponse(incident domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:            incident.ID,
		Reporter:      incident.Reporter,
		Area:          incident.Area,
		Description:   incident.Description,
		Status:        incident.Status,
		TechnicianID:  incident.TechnicianID,
		EquipmentCode: incident.EquipmentCode,
		CreatedAt:     incident.CreatedAt,
		UpdatedAt:     incident.UpdatedAt,
	}
}

// NewIncidentResponses converts a list of incidents.
func NewIncidentResponses(incidents []domain.Incident) []IncidentResponse {
	out := make([]IncidentResponse, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, NewIncidentResponse(incident))
	}
	return out
}

// NewHistoryResponses converts an audit trail.
func NewHistoryResponses(entries []domain.IncidentHistory) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			ID:           e.ID,
			ActorID:      e.ActorID,
			FromStatus:   e.FromStatus,
			ToStatus:     e.ToStatus,
			TechnicianID: e.TechnicianID,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
