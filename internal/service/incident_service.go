package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/repository"
	apperrors "github.com/spec-kit/fixpoint/pkg/util/errorutil"
)

// IncidentService coordinates incident lifecycle workflows.
type IncidentService struct {
	incidents  repository.IncidentRepository
	users      repository.UserRepository
	history    repository.IncidentHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// IncidentDependencies bundles collaborators for the incident service.
type IncidentDependencies struct {
	IncidentRepo repository.IncidentRepository
	UserRepo     repository.UserRepository
	HistoryRepo  repository.IncidentHistoryRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// RegisterInput describes a new incident report.
type RegisterInput struct {
	Reporter      string
	Area          string
	Description   string
	EquipmentCode string
}

// NewIncidentService constructs the service.
func NewIncidentService(deps IncidentDependencies) *IncidentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{
		incidents:  deps.IncidentRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Register records a new unattended incident.
func (s *IncidentService) Register(ctx context.Context, input RegisterInput) (*domain.Incident, error) {
	incident := &domain.Incident{
		Reporter:      strings.TrimSpace(input.Reporter),
		Area:          strings.TrimSpace(input.Area),
		Description:   strings.TrimSpace(input.Description),
		EquipmentCode: strings.TrimSpace(input.EquipmentCode),
		Status:        domain.StatusUnattended,
	}

	missing := []string{}
	for field, value := range map[string]string{
		"reporter":       incident.Reporter,
		"area":           incident.Area,
		"description":    incident.Description,
		"equipment_code": incident.EquipmentCode,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, apperrors.NewValidationError("required fields are blank", map[string]any{"fields": missing})
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		s.logger.Error("register incident", zap.Error(err))
		return nil, apperrors.NewStorageError("register incident", err)
	}

	s.recordHistory(ctx, incident, nil)
	s.metrics.RecordTransition(string(incident.Status))
	s.logger.Info("incident registered",
		zap.Int64("incident_id", incident.ID),
		zap.String("reporter", incident.Reporter),
		zap.String("equipment", incident.EquipmentCode))
	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentRegistered,
		IncidentID: incident.ID,
		Payload: events.IncidentRegisteredPayload{
			Reporter:      incident.Reporter,
			Area:          incident.Area,
			EquipmentCode: incident.EquipmentCode,
		},
	})
	return incident, nil
}

// Assign hands an unattended incident to a technician.
func (s *IncidentService) Assign(ctx context.Context, incidentID, technicianID int64) (*domain.Incident, error) {
	current, err := s.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, domain.StatusAssigned) {
		return nil, invalidTransition(current, domain.StatusAssigned)
	}

	technician, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.NewStorageError("load technician", err)
	}
	if technician.Role != domain.RoleTechnician {
		return nil, apperrors.NewValidationError("user is not a technician", map[string]any{
			"technician_id": technicianID,
			"role":          technician.Role,
		})
	}

	return s.transition(ctx, current, repository.IncidentChange{
		Status:       domain.StatusAssigned,
		TechnicianID: &technician.ID,
	}, events.EventIncidentAssigned)
}

// Defer parks an assigned incident as pending.
func (s *IncidentService) Defer(ctx context.Context, incidentID int64) (*domain.Incident, error) {
	current, err := s.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, domain.StatusDeferred) {
		return nil, invalidTransition(current, domain.StatusDeferred)
	}
	return s.transition(ctx, current, repository.IncidentChange{Status: domain.StatusDeferred}, events.EventIncidentDeferred)
}

// Resolve closes an assigned or deferred incident, replacing its description.
func (s *IncidentService) Resolve(ctx context.Context, incidentID int64, finalDescription string) (*domain.Incident, error) {
	description := strings.TrimSpace(finalDescription)
	if description == "" {
		return nil, apperrors.NewValidationError("final description is required", map[string]any{"fields": []string{"description"}})
	}

	current, err := s.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, domain.StatusResolved) {
		return nil, invalidTransition(current, domain.StatusResolved)
	}
	return s.transition(ctx, current, repository.IncidentChange{
		Status:      domain.StatusResolved,
		Description: &description,
	}, events.EventIncidentResolved)
}

// Get loads one incident.
func (s *IncidentService) Get(ctx context.Context, incidentID int64) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		s.logger.Error("load incident", zap.Int64("incident_id", incidentID), zap.Error(err))
		return nil, apperrors.NewStorageError("load incident", err)
	}
	return incident, nil
}

// History returns the incident's audit trail, oldest first.
func (s *IncidentService) History(ctx context.Context, incidentID int64) ([]domain.IncidentHistory, error) {
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, apperrors.NewStorageError("load incident history", err)
	}
	return entries, nil
}

// EnsureAssignedTo rejects technicians acting on incidents assigned to someone else.
func (s *IncidentService) EnsureAssignedTo(ctx context.Context, incidentID, technicianID int64) error {
	incident, err := s.Get(ctx, incidentID)
	if err != nil {
		return err
	}
	if incident.TechnicianID == nil || *incident.TechnicianID != technicianID {
		return apperrors.NewForbidden("incident is not assigned to you")
	}
	return nil
}

// transition applies change only while the row is in a permitted source
// status for change.Status; a concurrent move surfaces as an invalid transition.
func (s *IncidentService) transition(ctx context.Context, current *domain.Incident, change repository.IncidentChange, eventType events.EventType) (*domain.Incident, error) {
	updated, err := s.incidents.Transition(ctx, current.ID, domain.SourcesFor(change.Status), change)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, s.raceLost(ctx, current, change.Status)
		}
		s.logger.Error("transition incident",
			zap.Int64("incident_id", current.ID),
			zap.String("to", string(change.Status)),
			zap.Error(err))
		return nil, apperrors.NewStorageError("update incident", err)
	}

	s.recordHistory(ctx, updated, &current.Status)
	s.metrics.RecordTransition(string(updated.Status))
	s.logger.Info("incident transitioned",
		zap.Int64("incident_id", updated.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)))
	s.publishEvent(ctx, events.Event{
		Type:       eventType,
		IncidentID: updated.ID,
		Payload: events.IncidentStatusChangedPayload{
			OldStatus:    current.Status,
			NewStatus:    updated.Status,
			TechnicianID: updated.TechnicianID,
			Reporter:     updated.Reporter,
		},
	})
	return updated, nil
}

// raceLost re-reads an incident whose conditional update matched nothing.
func (s *IncidentService) raceLost(ctx context.Context, current *domain.Incident, target domain.IncidentStatus) error {
	latest, err := s.Get(ctx, current.ID)
	if err != nil {
		return err
	}
	return invalidTransition(latest, target)
}

// recordHistory appends an audit row. The transition is already committed, so
// a failure here is logged rather than reported to the caller.
func (s *IncidentService) recordHistory(ctx context.Context, incident *domain.Incident, from *domain.IncidentStatus) {
	if s.history == nil {
		return
	}
	entry := &domain.IncidentHistory{
		IncidentID:   incident.ID,
		ActorID:      actorFrom(ctx).UserID,
		FromStatus:   from,
		ToStatus:     incident.Status,
		TechnicianID: incident.TechnicianID,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("append incident history", zap.Int64("incident_id", incident.ID), zap.Error(err))
	}
}

func (s *IncidentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Actor = actorFrom(ctx)
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func invalidTransition(incident *domain.Incident, target domain.IncidentStatus) error {
	return apperrors.NewInvalidTransition(string(incident.Status), string(target), map[string]any{"incident_id": incident.ID})
}
