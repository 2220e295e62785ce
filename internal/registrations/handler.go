package registrations

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/middleware"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/pkg/response"
)

// Reader is the registration lookup surface used by the HTTP handlers.
type Reader interface {
	GetByCheckinToken(ctx context.Context, token string) (*models.Registration, error)
	MarkAttended(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (total, attended int, err error)
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	regs   Reader
	events events.Reader
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, regs Reader, eventReader events.Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, regs: regs, events: eventReader, logger: logger}
}

// Register handles POST /events/:id/register. The event id in the path wins over the body.
func (h *Handler) Register(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Rejected(c, http.StatusBadRequest, string(ReasonInvalidInput), "invalid request body")
		return
	}
	req.EventID = c.Param("id")

	reg, err := h.svc.TryRegister(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		h.writeRejection(c, err)
		return
	}
	response.Created(c, gin.H{
		"registration_id": reg.ID,
		"checkin_token":   reg.CheckinToken,
	})
}

func (h *Handler) writeRejection(c *gin.Context, err error) {
	var rej *RejectionError
	if !errors.As(err, &rej) {
		response.Internal(c, "failed to register")
		return
	}
	switch rej.Reason {
	case ReasonInvalidInput:
		response.RejectedWithDetails(c, http.StatusBadRequest, string(rej.Reason), "invalid registration", rej.Err)
	case ReasonRateLimited:
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rej.RetryAfter)))
		response.Rejected(c, http.StatusTooManyRequests, string(rej.Reason), "too many registration attempts, try again later")
	case ReasonNotFound, ReasonNotPublic:
		// Private events answer exactly like missing ones.
		response.Rejected(c, http.StatusNotFound, string(ReasonNotFound), "event not found")
	case ReasonDuplicate:
		response.Rejected(c, http.StatusConflict, string(rej.Reason), "this email is already registered for the event")
	case ReasonFull:
		response.Rejected(c, http.StatusConflict, string(rej.Reason), "the event is full")
	default:
		response.Internal(c, "failed to register")
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Lookup handles GET /registrations/:token. It backs the attendee QR code.
func (h *Handler) Lookup(c *gin.Context) {
	reg, err := h.regs.GetByCheckinToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		response.Internal(c, "failed to load registration")
		return
	}
	e, err := h.events.GetByID(c.Request.Context(), reg.EventID)
	if err != nil {
		response.NotFound(c, "registration not found")
		return
	}
	response.OK(c, gin.H{
		"registration":    reg,
		"event_id":        e.ID,
		"event_title":     e.Title,
		"event_starts_at": e.StartsAt,
	})
}

// CheckIn handles POST /registrations/:token/checkin. Only the event's organizer or an admin
// may check attendees in.
func (h *Handler) CheckIn(c *gin.Context) {
	reg, err := h.regs.GetByCheckinToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		response.Internal(c, "failed to load registration")
		return
	}
	e, err := h.events.GetByID(c.Request.Context(), reg.EventID)
	if err != nil {
		response.NotFound(c, "registration not found")
		return
	}
	userID, _ := middleware.UserID(c)
	if !middleware.IsAdmin(c) && e.CreatedBy != userID {
		response.Forbidden(c, "only the event organizer can check attendees in")
		return
	}
	updated, err := h.regs.MarkAttended(c.Request.Context(), reg.ID)
	if err != nil {
		h.logger.Error("check-in failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to check in")
		return
	}
	response.OK(c, updated)
}

// ListByEvent handles GET /events/:id/registrations. Call after RequireEventOwner.
func (h *Handler) ListByEvent(c *gin.Context) {
	e := events.FromContext(c)
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	list, err := h.regs.ListByEvent(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	total, attended, err := h.regs.CountByEvent(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to count registrations")
		return
	}
	response.OK(c, gin.H{
		"registrations": list,
		"total":         total,
		"attended":      attended,
		"max_attendees": e.MaxAttendees,
	})
}
