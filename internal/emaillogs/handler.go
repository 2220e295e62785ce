package emaillogs

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/internal/registrations"
	"github.com/panelevent/backend/pkg/response"
)

// Lister lists email logs of an event.
type Lister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error)
}

// RegistrationGetter loads a registration by id.
type RegistrationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	logs     Lister
	regs     RegistrationGetter
	notifier registrations.Notifier
	logger   *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(logs Lister, regs RegistrationGetter, notifier registrations.Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logs: logs, regs: regs, notifier: notifier, logger: logger}
}

// ListByEvent handles GET /events/:id/emails. Call after RequireEventOwner.
func (h *Handler) ListByEvent(c *gin.Context) {
	e := events.FromContext(c)
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	logs, err := h.logs.ListByEvent(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// ResendRequest is the body for POST /events/:id/emails/resend.
type ResendRequest struct {
	RegistrationID string `json:"registration_id" binding:"required,uuid"`
}

// Resend handles POST /events/:id/emails/resend. It queues the confirmation email again.
// Call after RequireEventOwner.
func (h *Handler) Resend(c *gin.Context) {
	e := events.FromContext(c)
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	var body ResendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "registration_id required")
		return
	}
	regID := uuid.MustParse(body.RegistrationID)
	reg, err := h.regs.GetByID(c.Request.Context(), regID)
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		response.Internal(c, "failed to load registration")
		return
	}
	if reg.EventID != e.ID {
		response.NotFound(c, "registration not found")
		return
	}
	if err := h.notifier.RegistrationAdmitted(c.Request.Context(), reg, e); err != nil {
		h.logger.Error("resend enqueue failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.ServiceUnavailable(c, "email queue unavailable")
		return
	}
	response.OK(c, gin.H{"message": "resend queued"})
}
