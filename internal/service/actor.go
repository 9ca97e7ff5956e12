package service

import (
	"context"

	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/events"
)

type actorKey struct{}

// WithActor records the user performing operations on ctx.
func WithActor(ctx context.Context, user *domain.User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, user)
}

func actorFrom(ctx context.Context) events.Actor {
	user, ok := ctx.Value(actorKey{}).(*domain.User)
	if !ok || user == nil {
		return events.Actor{}
	}
	id := user.ID
	return events.Actor{UserID: &id, Role: user.Role}
}
