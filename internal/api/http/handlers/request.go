package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fixpoint/internal/api/dto"
	"github.com/spec-kit/fixpoint/internal/auth"
	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/service"
	apperrors "github.com/spec-kit/fixpoint/pkg/util/errorutil"
)

// caller returns the authenticated user and a context carrying it as actor.
func caller(c *fiber.Ctx) (*domain.User, context.Context, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, service.WithActor(c.UserContext(), principal.User), nil
}

func incidentID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid incident id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func bindQuery(c *fiber.Ctx, req any) error {
	if err := c.QueryParser(req); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	return dto.Validate(req)
}
