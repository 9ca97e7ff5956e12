package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/fixpoint/internal/auth"
	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/repository"
	"github.com/spec-kit/fixpoint/internal/testutil"
	apperrors "github.com/spec-kit/fixpoint/pkg/util/errorutil"
)

type fixture struct {
	repos        repository.Set
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	incidents    *IncidentService
	views        *ViewService
	auth         *AuthService
	provisioning *ProvisioningService
	users        map[string]*domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenSQLite(t)
	f := &fixture{
		repos:      repository.NewSet(db),
		dispatcher: events.NewInMemoryDispatcher(),
		metrics:    observability.NewMetrics(),
		users:      map[string]*domain.User{},
	}
	f.incidents = NewIncidentService(IncidentDependencies{
		IncidentRepo: f.repos.Incidents,
		UserRepo:     f.repos.Users,
		HistoryRepo:  f.repos.History,
		Dispatcher:   f.dispatcher,
		Metrics:      f.metrics,
	})
	f.views = NewViewService(ViewDependencies{
		IncidentRepo: f.repos.Incidents,
		UserRepo:     f.repos.Users,
		Dispatcher:   f.dispatcher,
	})
	f.auth = NewAuthService(f.repos.Users, auth.NewTokenManager("secret", time.Minute), nil)
	f.provisioning = NewProvisioningService(f.repos.Users, f.incidents, f.dispatcher, nil)

	for _, in := range []CreateUserInput{
		{Username: "jefe1", DisplayName: "Jefe Area 1", Password: "123", Role: domain.RoleChief},
		{Username: "tec1", DisplayName: "Tecnico Uno", Password: "123", Role: domain.RoleTechnician},
		{Username: "tec2", DisplayName: "Tecnico Dos", Password: "123", Role: domain.RoleTechnician},
		{Username: "user1", DisplayName: "Usuario General", Password: "123", Role: domain.RoleOrdinary},
	} {
		u, err := f.provisioning.CreateUser(context.Background(), in)
		require.NoError(t, err)
		f.users[u.Username] = u
	}
	return f
}

func (f *fixture) register(t *testing.T, reporter string) *domain.Incident {
	t.Helper()
	incident, err := f.incidents.Register(context.Background(), RegisterInput{
		Reporter:      reporter,
		Area:          "Contabilidad",
		Description:   "La impresora no enciende",
		EquipmentCode: "EQ-01",
	})
	require.NoError(t, err)
	return incident
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	incident := f.register(t, "user1")
	assert.NotZero(t, incident.ID)
	assert.Equal(t, domain.StatusUnattended, incident.Status)
	assert.Nil(t, incident.TechnicianID)

	_, err := f.incidents.Register(ctx, RegisterInput{Reporter: "user1", Area: "A", Description: "   ", EquipmentCode: "E"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	all, err := f.repos.Incidents.List(ctx, repository.IncidentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected registration must not create a row")
}

func TestLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := WithActor(context.Background(), f.users["jefe1"])
	tech := f.users["tec1"]

	var mu sync.Mutex
	var seen []events.EventType
	events.SubscribeMany(f.dispatcher, events.IncidentEventTypes, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
		return nil
	})

	incident := f.register(t, "user1")

	assigned, err := f.incidents.Assign(ctx, incident.ID, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.TechnicianID)
	assert.Equal(t, tech.ID, *assigned.TechnicianID)

	_, err = f.incidents.Assign(ctx, incident.ID, tech.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	deferred, err := f.incidents.Defer(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeferred, deferred.Status)
	assert.Equal(t, tech.ID, *deferred.TechnicianID)

	resolved, err := f.incidents.Resolve(ctx, incident.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)
	assert.Equal(t, "fixed", resolved.Description)
	assert.Equal(t, tech.ID, *resolved.TechnicianID)

	_, err = f.incidents.Resolve(ctx, incident.ID, "fixed")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	_, err = f.incidents.Defer(ctx, incident.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	history, err := f.incidents.History(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, domain.StatusUnattended, history[0].ToStatus)
	assert.Equal(t, domain.StatusResolved, history[3].ToStatus)
	require.NotNil(t, history[3].FromStatus)
	assert.Equal(t, domain.StatusDeferred, *history[3].FromStatus)
	require.NotNil(t, history[1].ActorID)
	assert.Equal(t, f.users["jefe1"].ID, *history[1].ActorID)

	mu.Lock()
	assert.Equal(t, []events.EventType{
		events.EventIncidentRegistered,
		events.EventIncidentAssigned,
		events.EventIncidentDeferred,
		events.EventIncidentResolved,
	}, seen)
	mu.Unlock()

	snap := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Transitions[string(domain.StatusResolved)])
}

func TestResolveFromAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	incident := f.register(t, "user1")

	_, err := f.incidents.Resolve(ctx, incident.ID, "fixed")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition), "unattended cannot be resolved")

	_, err = f.incidents.Assign(ctx, incident.ID, f.users["tec1"].ID)
	require.NoError(t, err)

	_, err = f.incidents.Resolve(ctx, incident.ID, "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	resolved, err := f.incidents.Resolve(ctx, incident.ID, " cable replaced ")
	require.NoError(t, err)
	assert.Equal(t, "cable replaced", resolved.Description)
}

func TestAssign_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	incident := f.register(t, "user1")

	_, err := f.incidents.Assign(ctx, 9999, f.users["tec1"].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.incidents.Assign(ctx, incident.ID, 9999)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.incidents.Assign(ctx, incident.ID, f.users["user1"].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	current, err := f.incidents.Get(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnattended, current.Status)

	_, err = f.incidents.Defer(ctx, 9999)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = f.incidents.History(ctx, 9999)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestEnsureAssignedTo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	incident := f.register(t, "user1")

	err := f.incidents.EnsureAssignedTo(ctx, incident.ID, f.users["tec1"].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.incidents.Assign(ctx, incident.ID, f.users["tec1"].ID)
	require.NoError(t, err)

	assert.NoError(t, f.incidents.EnsureAssignedTo(ctx, incident.ID, f.users["tec1"].ID))
	err = f.incidents.EnsureAssignedTo(ctx, incident.ID, f.users["tec2"].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

// racingIncidents lets another writer move the row between the service's
// read and its conditional update.
type racingIncidents struct {
	repository.IncidentRepository
	before func()
}

func (r *racingIncidents) Transition(ctx context.Context, id int64, from []domain.IncidentStatus, change repository.IncidentChange) (*domain.Incident, error) {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return r.IncidentRepository.Transition(ctx, id, from, change)
}

func TestAssign_ConcurrentTransitionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	incident := f.register(t, "user1")
	tec1, tec2 := f.users["tec1"].ID, f.users["tec2"].ID

	racing := &racingIncidents{IncidentRepository: f.repos.Incidents}
	racing.before = func() {
		_, err := f.repos.Incidents.Transition(ctx, incident.ID,
			domain.SourcesFor(domain.StatusAssigned),
			repository.IncidentChange{Status: domain.StatusAssigned, TechnicianID: &tec2})
		require.NoError(t, err)
	}
	svc := NewIncidentService(IncidentDependencies{
		IncidentRepo: racing,
		UserRepo:     f.repos.Users,
		HistoryRepo:  f.repos.History,
	})

	_, err := svc.Assign(ctx, incident.ID, tec1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	current, err := f.incidents.Get(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, tec2, *current.TechnicianID, "first writer wins")
}

func TestViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tec1, tec2 := f.users["tec1"].ID, f.users["tec2"].ID

	a := f.register(t, "user1")
	b := f.register(t, "user1")
	c := f.register(t, "otro")
	d := f.register(t, "user1")

	_, err := f.incidents.Assign(ctx, a.ID, tec1)
	require.NoError(t, err)
	_, err = f.incidents.Assign(ctx, b.ID, tec1)
	require.NoError(t, err)
	_, err = f.incidents.Defer(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.incidents.Assign(ctx, c.ID, tec2)
	require.NoError(t, err)

	unattended, err := f.views.Unattended(ctx)
	require.NoError(t, err)
	require.Len(t, unattended, 1)
	assert.Equal(t, d.ID, unattended[0].ID)

	assigned, err := f.views.ForTechnician(ctx, tec1, domain.StatusAssigned)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, a.ID, assigned[0].ID)

	pending, err := f.views.ForTechnician(ctx, tec1, domain.StatusDeferred)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	_, err = f.views.ForTechnician(ctx, tec1, domain.StatusResolved)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	mine, err := f.views.ForReporter(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []int64{a.ID, b.ID, d.ID}, []int64{mine[0].ID, mine[1].ID, mine[2].ID})

	none, err := f.views.ForReporter(ctx, "nadie")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	techs, err := f.views.Technicians(ctx)
	require.NoError(t, err)
	require.Len(t, techs, 2)
	assert.Equal(t, "tec1", techs[0].Username)
}

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
	return Snapshot{}
}

func TestWatch(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := f.register(t, "user1")

	ch, err := f.views.Watch(ctx, UnattendedView())
	require.NoError(t, err)

	snap := receive(t, ch)
	require.Len(t, snap.Incidents, 1)
	assert.Equal(t, first.ID, snap.Incidents[0].ID)

	second := f.register(t, "user1")
	snap = receive(t, ch)
	require.Len(t, snap.Incidents, 2)
	assert.Equal(t, second.ID, snap.Incidents[1].ID)

	_, err = f.incidents.Assign(context.Background(), first.ID, f.users["tec1"].ID)
	require.NoError(t, err)
	snap = receive(t, ch)
	require.Len(t, snap.Incidents, 1)
	assert.Equal(t, second.ID, snap.Incidents[0].ID)

	// An event that leaves the rows unchanged emits nothing.
	require.NoError(t, f.dispatcher.Publish(context.Background(), events.Event{Type: events.EventIncidentDeferred}))
	select {
	case extra := <-ch:
		t.Fatalf("unexpected snapshot %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_CoalescesForSlowConsumer(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.views.Watch(ctx, ReporterView("user1"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		f.register(t, "user1")
	}

	require.Eventually(t, func() bool {
		select {
		case snap := <-ch:
			return len(snap.Incidents) == 5
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_RejectsInvalidView(t *testing.T) {
	f := newFixture(t)
	_, err := f.views.Watch(context.Background(), TechnicianView(f.users["tec1"].ID, domain.StatusUnattended))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestWatch_Technicians(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.views.Watch(ctx, TechniciansView())
	require.NoError(t, err)
	assert.Len(t, receive(t, ch).Technicians, 2)

	_, err = f.provisioning.CreateUser(ctx, CreateUserInput{Username: "tec3", DisplayName: "Tecnico Tres", Password: "123", Role: domain.RoleTechnician})
	require.NoError(t, err)
	assert.Len(t, receive(t, ch).Technicians, 3)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Login(ctx, "tec1", "123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleTechnician, user.Role)

	user, err = f.auth.Login(ctx, "tec1", "wrong")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = f.auth.Login(ctx, "TEC1", "123")
	assert.NoError(t, err)
	assert.Nil(t, user, "usernames match exactly")
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.auth.StartSession(ctx, "jefe1", "123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleChief, session.Home.Role)
	assert.Equal(t, domain.HomeFor(domain.RoleChief), session.Home)

	claims, err := f.auth.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, f.users["jefe1"].ID, claims.UserID)

	_, err = f.auth.StartSession(ctx, "jefe1", "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provisioning.CreateUser(ctx, CreateUserInput{Username: "tec1", DisplayName: "X", Password: "1", Role: domain.RoleTechnician})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.provisioning.CreateUser(ctx, CreateUserInput{Username: "x", DisplayName: "X", Password: "1", Role: "admin"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.provisioning.CreateUser(ctx, CreateUserInput{Username: " ", DisplayName: "X", Password: "1", Role: domain.RoleOrdinary})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestSeedDemoData(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repos := repository.NewSet(db)
	incidents := NewIncidentService(IncidentDependencies{
		IncidentRepo: repos.Incidents,
		UserRepo:     repos.Users,
		HistoryRepo:  repos.History,
	})
	svc := NewProvisioningService(repos.Users, incidents, nil, nil)
	ctx := context.Background()

	result, err := svc.SeedDemoData(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Users: 16, Incidents: 7}, result)

	again, err := svc.SeedDemoData(ctx)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	count, err := repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, count)

	techs, err := repos.Users.ListByRole(ctx, domain.RoleTechnician)
	require.NoError(t, err)
	assert.Len(t, techs, 7)

	unattended, err := repos.Incidents.List(ctx, repository.IncidentFilter{Statuses: []domain.IncidentStatus{domain.StatusUnattended}})
	require.NoError(t, err)
	require.Len(t, unattended, 7)
	assert.Equal(t, "Equipo1", unattended[0].EquipmentCode)
}
