package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/repository"
	apperrors "github.com/spec-kit/fixpoint/pkg/util/errorutil"
)

// ViewKind tags which role-scoped list a View describes.
type ViewKind string

const (
	ViewUnattended  ViewKind = "unattended"
	ViewTechnician  ViewKind = "technician"
	ViewReporter    ViewKind = "reporter"
	ViewTechnicians ViewKind = "technicians"
)

// View selects one role-scoped listing. Only the fields of its Kind are read.
type View struct {
	Kind         ViewKind
	TechnicianID int64
	Status       domain.IncidentStatus
	Reporter     string
}

// UnattendedView is the chief's queue of incidents awaiting a technician.
func UnattendedView() View { return View{Kind: ViewUnattended} }

// TechnicianView lists a technician's incidents in one status.
func TechnicianView(technicianID int64, status domain.IncidentStatus) View {
	return View{Kind: ViewTechnician, TechnicianID: technicianID, Status: status}
}

// ReporterView lists everything a user has reported.
func ReporterView(username string) View { return View{Kind: ViewReporter, Reporter: username} }

// TechniciansView lists technician accounts.
func TechniciansView() View { return View{Kind: ViewTechnicians} }

// Snapshot is one emission of a view.
type Snapshot struct {
	View        View
	Incidents   []domain.Incident
	Technicians []domain.User
	At          time.Time
}

// same reports whether two snapshots carry identical rows.
func (s Snapshot) same(o Snapshot) bool {
	if len(s.Incidents) != len(o.Incidents) || len(s.Technicians) != len(o.Technicians) {
		return false
	}
	for i := range s.Incidents {
		if !s.Incidents[i].Same(o.Incidents[i]) {
			return false
		}
	}
	for i := range s.Technicians {
		if s.Technicians[i] != o.Technicians[i] {
			return false
		}
	}
	return true
}

// ViewService answers the role-scoped incident listings.
type ViewService struct {
	incidents  repository.IncidentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ViewDependencies bundles collaborators for the view service.
type ViewDependencies struct {
	IncidentRepo repository.IncidentRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewViewService constructs the service.
func NewViewService(deps ViewDependencies) *ViewService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{
		incidents:  deps.IncidentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Unattended lists incidents awaiting assignment.
func (s *ViewService) Unattended(ctx context.Context) ([]domain.Incident, error) {
	return s.list(ctx, repository.IncidentFilter{Statuses: []domain.IncidentStatus{domain.StatusUnattended}})
}

// ForTechnician lists a technician's incidents in status, which must be
// Assigned or Deferred.
func (s *ViewService) ForTechnician(ctx context.Context, technicianID int64, status domain.IncidentStatus) ([]domain.Incident, error) {
	if status != domain.StatusAssigned && status != domain.StatusDeferred {
		return nil, apperrors.NewValidationError("status must be Asignado or Pendiente", map[string]any{"status": status})
	}
	return s.list(ctx, repository.IncidentFilter{
		Statuses:     []domain.IncidentStatus{status},
		TechnicianID: &technicianID,
	})
}

// ForReporter lists every incident a user reported, in any status.
func (s *ViewService) ForReporter(ctx context.Context, username string) ([]domain.Incident, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewValidationError("reporter is required", nil)
	}
	return s.list(ctx, repository.IncidentFilter{Reporter: &username})
}

// Technicians lists every technician account.
func (s *ViewService) Technicians(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListByRole(ctx, domain.RoleTechnician)
	if err != nil {
		s.logger.Error("list technicians", zap.Error(err))
		return nil, apperrors.NewStorageError("list technicians", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Load evaluates a view once.
func (s *ViewService) Load(ctx context.Context, view View) (Snapshot, error) {
	snap := Snapshot{View: view}
	var err error
	switch view.Kind {
	case ViewUnattended:
		snap.Incidents, err = s.Unattended(ctx)
	case ViewTechnician:
		snap.Incidents, err = s.ForTechnician(ctx, view.TechnicianID, view.Status)
	case ViewReporter:
		snap.Incidents, err = s.ForReporter(ctx, view.Reporter)
	case ViewTechnicians:
		snap.Technicians, err = s.Technicians(ctx)
	default:
		err = apperrors.NewValidationError("unknown view", map[string]any{"kind": view.Kind})
	}
	if err != nil {
		return Snapshot{}, err
	}
	snap.At = time.Now().UTC()
	return snap, nil
}

// Watch emits the view's current rows, then re-emits whenever an event may
// have changed them. Identical consecutive snapshots are dropped and a slow
// consumer only ever sees the latest one. The channel closes when ctx ends.
func (s *ViewService) Watch(ctx context.Context, view View) (<-chan Snapshot, error) {
	dirty := make(chan struct{}, 1)
	unsubscribe := func() {}
	if s.dispatcher != nil {
		unsubscribe = events.SubscribeMany(s.dispatcher, watchedEvents(view), func(context.Context, events.Event) error {
			select {
			case dirty <- struct{}{}:
			default:
			}
			return nil
		})
	}

	// Subscribe before the first load so no change slips between them.
	first, err := s.Load(ctx, view)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- first

	go func() {
		defer close(out)
		defer unsubscribe()

		last := first
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}

			snap, err := s.Load(ctx, view)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("refresh view", zap.String("view", string(view.Kind)), zap.Error(err))
				continue
			}
			if snap.same(last) {
				continue
			}
			last = snap
			replaceLatest(out, snap)
		}
	}()
	return out, nil
}

// replaceLatest publishes snap on a one-slot channel, discarding any unread
// predecessor. Only the watch goroutine sends on out.
func replaceLatest(out chan Snapshot, snap Snapshot) {
	select {
	case out <- snap:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- snap
}

func watchedEvents(view View) []events.EventType {
	if view.Kind == ViewTechnicians {
		return []events.EventType{events.EventUserCreated}
	}
	return events.IncidentEventTypes
}

func (s *ViewService) list(ctx context.Context, filter repository.IncidentFilter) ([]domain.Incident, error) {
	incidents, err := s.incidents.List(ctx, filter)
	if err != nil {
		s.logger.Error("list incidents", zap.Error(err))
		return nil, apperrors.NewStorageError("list incidents", err)
	}
	if incidents == nil {
		incidents = []domain.Incident{}
	}
	return incidents, nil
}
