package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/auth"
	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/events"
	"github.com/spec-kit/fixpoint/internal/observability"
	"github.com/spec-kit/fixpoint/internal/repository"
)

// Services groups every application service over one store.
type Services struct {
	Incidents     *IncidentService
	Views         *ViewService
	Auth          *AuthService
	Provisioning  *ProvisioningService
	Notifications *NotificationService
}

// NewServices wires the services onto repos and dispatcher.
func NewServices(cfg *config.Config, repos repository.Set, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *Services {
	incidents := NewIncidentService(IncidentDependencies{
		IncidentRepo: repos.Incidents,
		UserRepo:     repos.Users,
		HistoryRepo:  repos.History,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger.Named("incidents"),
	})
	return &Services{
		Incidents: incidents,
		Views: NewViewService(ViewDependencies{
			IncidentRepo: repos.Incidents,
			UserRepo:     repos.Users,
			Dispatcher:   dispatcher,
			Logger:       logger.Named("views"),
		}),
		Auth:          NewAuthService(repos.Users, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()), logger.Named("auth")),
		Provisioning:  NewProvisioningService(repos.Users, incidents, dispatcher, logger.Named("provisioning")),
		Notifications: NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification),
	}
}
