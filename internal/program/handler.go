package program

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/middleware"
	"github.com/panelevent/backend/pkg/response"
)

// Handler serves event programs over HTTP.
type Handler struct {
	svc    *Service
	events events.Reader
	logger *zap.Logger
}

// NewHandler creates a program handler.
func NewHandler(svc *Service, eventReader events.Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, events: eventReader, logger: logger}
}

// Get handles GET /events/:id/program?lang=xx. With ?raw=1 the multilingual form is returned.
func (h *Handler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	if !e.IsPublic {
		userID, ok := middleware.UserID(c)
		if !ok || (e.CreatedBy != userID && !middleware.IsAdmin(c)) {
			response.NotFound(c, "event not found")
			return
		}
	}

	data, err := h.svc.Load(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("load program failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to load program")
		return
	}
	if c.Query("raw") == "1" {
		response.OK(c, data)
		return
	}
	response.OK(c, Project(data, h.svc.Locales().Parse(c.Query("lang"))))
}

// Put handles PUT /events/:id/program. Call after RequireEventOwner.
func (h *Handler) Put(c *gin.Context) {
	e := events.FromContext(c)
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	var in SaveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	data, err := h.svc.Save(c.Request.Context(), e.ID, in)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			response.Invalid(c, verr.Error(), verr)
		case errors.Is(err, events.ErrNotFound):
			response.NotFound(c, "event not found")
		default:
			h.logger.Error("save program failed", zap.Error(err), zap.String("event_id", e.ID.String()))
			response.Internal(c, "failed to save program")
		}
		return
	}
	response.OK(c, data)
}
