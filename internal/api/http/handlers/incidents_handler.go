package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fixpoint/internal/api/dto"
	"github.com/spec-kit/fixpoint/internal/service"
)

// IncidentsHandler serves reporting and shared incident lookups.
type IncidentsHandler struct {
	incidents *service.IncidentService
	views     *service.ViewService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidents *service.IncidentService, views *service.ViewService) *IncidentsHandler {
	return &IncidentsHandler{incidents: incidents, views: views}
}

// Create handles POST /incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	user, ctx, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.IncidentCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	incident, err := h.incidents.Register(ctx, service.RegisterInput{
		Reporter:      user.Username,
		Area:          req.Area,
		Description:   req.Description,
		EquipmentCode: req.EquipmentCode,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewIncidentResponse(*incident)})
}

// Mine handles GET /incidents/mine.
func (h *IncidentsHandler) Mine(c *fiber.Ctx) error {
	user, ctx, err := caller(c)
	if err != nil {
		return err
	}
	incidents, err := h.views.ForReporter(ctx, user.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponses(incidents)})
}

// Get handles GET /incidents/:id.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	_, ctx, err := caller(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	incident, err := h.incidents.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(*incident)})
}

// History handles GET /incidents/:id/history.
func (h *IncidentsHandler) History(c *fiber.Ctx) error {
	_, ctx, err := caller(c)
	if err != nil {
		return err
	}
	id, err := incidentID(c)
	if err != nil {
		return err
	}
	entries, err := h.incidents.History(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}
