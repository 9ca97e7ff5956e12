package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fixpoint/internal/api/dto"
	"github.com/spec-kit/fixpoint/internal/service"
)

// ChiefHandler serves the area chief's queue and assignment.
type ChiefHandler struct {
	incidents *service.IncidentService
	views     *service.ViewService
}

// NewChiefHandler constructs handler.
func NewChiefHandler(incidents *service.IncidentService, views *service.ViewService) *ChiefHandler {
	return &ChiefHandler{incidents: incidents, views: views}
}

// Unattended handles GET /chief/incidents/unattended.
func (h *ChiefHandler) Unattended(c *fiber.Ctx) error {
	_, ctx, err := caller(c)
	if err != nil {
		return err
	}
	incidents, err := h.views.Unattended(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponses(incidents)})
}

// Technicians handles GET /chief/technicians.
func (h *ChiefHandler) Technicians(c *fiber.Ctx) error {
	_, ctx, err := caller(c)
	if err != nil {
		return err
	}
	users, err := h.views.Technicians(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Assign handles POST /chief/incidents/:id/assign.
func (h *ChiefHandler) Assign(c *fiber.Ctx) error {
	_, ctx, err := caller(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	incident, err := h.incidents.Assign(ctx, id, req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(*incident)})
}
