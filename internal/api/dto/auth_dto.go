package dto

import (
	"time"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
}

// HomeResponse lists the views a role lands on.
type HomeResponse struct {
	Role  domain.Role `json:"role"`
	Views []string    `json:"views"`
}

// SessionResponse standard response for login.
type SessionResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Home      HomeResponse `json:"home"`
}

// NewUserResponse hides the stored password.
func NewUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

// NewUserResponses converts a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// NewSessionResponse converts a session.
func NewSessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		User:      NewUserResponse(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Home:      HomeResponse{Role: session.Home.Role, Views: session.Home.Views},
	}
}
