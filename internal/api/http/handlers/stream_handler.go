package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/api/dto"
	"github.com/spec-kit/fixpoint/internal/domain"
	"github.com/spec-kit/fixpoint/internal/service"
)

const sseKeepAliveInterval = 15 * time.Second

// StreamHandler pushes live views as server-sent events.
type StreamHandler struct {
	base      context.Context
	views     *service.ViewService
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewStreamHandler constructs handler. Streams end when base is cancelled.
func NewStreamHandler(base context.Context, views *service.ViewService, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{base: base, views: views, logger: logger, keepAlive: sseKeepAliveInterval}
}

type snapshotEvent struct {
	View        service.ViewKind       `json:"view"`
	Incidents   []dto.IncidentResponse `json:"incidents,omitempty"`
	Technicians []dto.UserResponse     `json:"technicians,omitempty"`
	At          time.Time              `json:"at"`
}

// Mine handles GET /incidents/mine/stream.
func (h *StreamHandler) Mine(c *fiber.Ctx) error {
	user, _, err := caller(c)
	if err != nil {
		return err
	}
	return h.stream(c, user, service.ReporterView(user.Username))
}

// Unattended handles GET /chief/incidents/unattended/stream.
func (h *StreamHandler) Unattended(c *fiber.Ctx) error {
	user, _, err := caller(c)
	if err != nil {
		return err
	}
	return h.stream(c, user, service.UnattendedView())
}

// Technician handles GET /technician/incidents/stream?status=.
func (h *StreamHandler) Technician(c *fiber.Ctx) error {
	user, _, err := caller(c)
	if err != nil {
		return err
	}
	var query dto.TechnicianListQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}
	return h.stream(c, user, service.TechnicianView(user.ID, domain.IncidentStatus(query.Status)))
}

// stream starts the watch before committing to a 200 so view errors still
// render as JSON. The watch outlives the handler, so it hangs off base
// instead of the request context.
func (h *StreamHandler) stream(c *fiber.Ctx, user *domain.User, view service.View) error {
	ctx, cancel := context.WithCancel(h.base)
	snapshots, err := h.views.Watch(ctx, view)
	if err != nil {
		cancel()
		return err
	}

	connID := uuid.NewString()
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With(
		zap.String("conn_id", connID),
		zap.Int64("user_id", user.ID),
		zap.String("view", string(view.Kind)))
	logger.Info("SSE connection established")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if _, err := w.WriteString(": connected\n\n"); err != nil || w.Flush() != nil {
			logger.Warn("SSE initial write error", zap.Error(err))
			return
		}

		keepAliveTicker := time.NewTicker(h.keepAlive)
		defer keepAliveTicker.Stop()

		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					logger.Info("SSE stream closed")
					return
				}
				if err := writeSnapshot(w, snap); err != nil {
					logger.Info("SSE connection closed by client", zap.Error(err))
					return
				}
			case <-keepAliveTicker.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					logger.Info("SSE connection closed by client", zap.Error(err))
					return
				}
				if err := w.Flush(); err != nil {
					logger.Info("SSE connection closed by client", zap.Error(err))
					return
				}
			}
		}
	})
	return nil
}

func writeSnapshot(w *bufio.Writer, snap service.Snapshot) error {
	payload := snapshotEvent{View: snap.View.Kind, At: snap.At}
	if snap.View.Kind == service.ViewTechnicians {
		payload.Technicians = dto.NewUserResponses(snap.Technicians)
	} else {
		payload.Incidents = dto.NewIncidentResponses(snap.Incidents)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
