package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fixpoint/internal/api/dto"
	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/service"
)

// TechnicianHandler serves a technician's own work.
type TechnicianHandler struct {
	incidents *service.IncidentService
	views     *service.ViewService
}

// NewTechnicianHandler constructs handler.
func NewTechnicianHandler(incidents *service.IncidentService, views *service.ViewService) *TechnicianHandler {
	return &TechnicianHandler{incidents: incidents, views: views}
}

// List handles GET /technician/incidents?status=.
func (h *TechnicianHandler) List(c *fiber.Ctx) error {
	user, ctx, err := caller(c)
	if err != nil {
		return err
	}
	var query dto.TechnicianListQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}
	incidents, err := h.views.ForTechnician(ctx, user.ID, domain.IncidentStatus(query.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponses(incidents)})
}

// Defer handles POST /technician/incidents/:id/defer.
func (h *TechnicianHandler) Defer(c *fiber.Ctx) error {
	user, ctx, err := caller(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	if err := h.incidents.EnsureAssignedTo(ctx, id, user.ID); err != nil {
		return err
	}

	incident, err := h.incidents.Defer(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(*incident)})
}

// Resolve handles POST /technician/incidents/:id/resolve.
func (h *TechnicianHandler) Resolve(c *fiber.Ctx) error {
	user, ctx, err := caller(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	var req dto.ResolveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.incidents.EnsureAssignedTo(ctx, id, user.ID); err != nil {
		return err
	}

	incident, err := h.incidents.Resolve(ctx, id, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(*incident)})
}
