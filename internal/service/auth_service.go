package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/auth"
	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/repository"
	apperrors "github.com/spec-kit/fixpoint/pkg/util/errorutil"
)

// AuthService resolves credentials into sessions.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, tokenMgr: tokens, logger: logger}
}

// Login returns the account whose username and password match exactly, or
// nil when none does.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.FindByCredentials(ctx, username, password)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, nil
		}
		s.logger.Error("login lookup", zap.String("username", username), zap.Error(err))
		return nil, apperrors.NewStorageError("login", err)
	}
	return user, nil
}

// StartSession logs in and issues a token plus the role's home views.
func (s *AuthService) StartSession(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := s.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("session started", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return &domain.Session{
		User:      *user,
		Token:     token,
		ExpiresAt: expiresAt,
		Home:      domain.HomeFor(user.Role),
	}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
