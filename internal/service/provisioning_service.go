package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/repository"
	apperrors "github.com/spec-kit/fixpoint/pkg/util/errorutil"
)

// ProvisioningService creates accounts and demo data outside the request flow.
type ProvisioningService struct {
	users      repository.UserRepository
	incidents  *IncidentService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username    string
	DisplayName string
	Password    string
	Role        domain.Role
}

// SeedResult reports what SeedDemoData inserted.
type SeedResult struct {
	Users     int
	Incidents int
	Skipped   bool
}

// NewProvisioningService constructs the service.
func NewProvisioningService(users repository.UserRepository, incidents *IncidentService, dispatcher events.Dispatcher, logger *zap.Logger) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{users: users, incidents: incidents, dispatcher: dispatcher, logger: logger}
}

// CreateUser validates and stores a new account.
func (s *ProvisioningService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	user := &domain.User{
		Username:    strings.TrimSpace(input.Username),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    input.Password,
		Role:        input.Role,
	}
	if user.Username == "" || user.DisplayName == "" || user.Password == "" {
		return nil, apperrors.NewValidationError("username, display name and password are required", nil)
	}
	if !user.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	if _, err := s.users.GetByUsername(ctx, user.Username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": user.Username})
	} else if !apperrors.IsNoRows(err) {
		return nil, apperrors.NewStorageError("check username", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewStorageError("create user", err)
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserCreated,
			Actor:     actorFrom(ctx),
			Timestamp: time.Now().UTC(),
			Payload: events.UserCreatedPayload{
				UserID:   user.ID,
				Username: user.Username,
				Role:     user.Role,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return user, nil
}

// SeedDemoData installs the demo accounts and incidents when no account
// exists yet. It is a no-op on a populated store.
func (s *ProvisioningService) SeedDemoData(ctx context.Context) (SeedResult, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return SeedResult{}, apperrors.NewStorageError("count users", err)
	}
	if count > 0 {
		s.logger.Info("demo data skipped; accounts already exist", zap.Int("users", count))
		return SeedResult{Skipped: true}, nil
	}

	var result SeedResult
	for _, input := range demoUsers() {
		if _, err := s.CreateUser(ctx, input); err != nil {
			return result, err
		}
		result.Users++
	}
	for i := 1; i <= 7; i++ {
		_, err := s.incidents.Register(ctx, RegisterInput{
			Reporter:      fmt.Sprintf("Usuario%d", i),
			Area:          fmt.Sprintf("Area%d", i),
			Description:   fmt.Sprintf("Descripción de la incidencia %d", i),
			EquipmentCode: fmt.Sprintf("Equipo%d", i),
		})
		if err != nil {
			return result, err
		}
		result.Incidents++
	}
	s.logger.Info("demo data seeded", zap.Int("users", result.Users), zap.Int("incidents", result.Incidents))
	return result, nil
}

func demoUsers() []CreateUserInput {
	const password = "123"
	users := []CreateUserInput{}
	for i := 1; i <= 3; i++ {
		users = append(users, CreateUserInput{
			Username:    fmt.Sprintf("jefe%d", i),
			DisplayName: fmt.Sprintf("Jefe Area %d", i),
			Password:    password,
			Role:        domain.RoleChief,
		})
	}
	for i, name := range []string{"Uno", "Dos", "Tres", "Cuatro", "Cinco", "Seis", "Siete"} {
		users = append(users, CreateUserInput{
			Username:    fmt.Sprintf("tec%d", i+1),
			DisplayName: "Tecnico " + name,
			Password:    password,
			Role:        domain.RoleTechnician,
		})
	}
	for i := 1; i <= 6; i++ {
		display := "Usuario General"
		if i > 1 {
			display = fmt.Sprintf("Usuario General %d", i)
		}
		users = append(users, CreateUserInput{
			Username:    fmt.Sprintf("user%d", i),
			DisplayName: display,
			Password:    password,
			Role:        domain.RoleOrdinary,
		})
	}
	return users
}
