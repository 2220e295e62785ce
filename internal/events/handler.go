package events

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/panelevent/backend/internal/middleware"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	StartsAt     string  `json:"starts_at" binding:"required"`
	EndsAt       *string `json:"ends_at"`
	IsPublic     bool    `json:"is_public"`
	MaxAttendees *int    `json:"max_attendees" binding:"omitempty,min=1"`
}

// UpdateRequest is the body for PATCH /events/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Location      *string `json:"location"`
	StartsAt      *string `json:"starts_at"`
	EndsAt        *string `json:"ends_at"`
	IsPublic      *bool   `json:"is_public"`
	MaxAttendees  *int    `json:"max_attendees" binding:"omitempty,min=1"`
	ClearCapacity bool    `json:"clear_max_attendees"`
}

// Store is the event persistence the handler needs.
type Store interface {
	Reader
	Create(ctx context.Context, e *models.Event) error
	List(ctx context.Context, createdBy *uuid.UUID, publicOnly bool) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo Store
}

// NewHandler creates an event handler.
func NewHandler(repo Store) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /events (organizer or admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID, _ := middleware.UserID(c)

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}

	e := &models.Event{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		IsPublic:     req.IsPublic,
		MaxAttendees: req.MaxAttendees,
		CreatedBy:    userID,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /events/:id. Private events are only visible to their organizer and admins.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
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
	response.OK(c, e)
}

// List handles GET /events. Query ?mine=1 returns only events created by the current user;
// otherwise only public events are listed.
func (h *Handler) List(c *gin.Context) {
	var createdBy *uuid.UUID
	publicOnly := true
	if c.Query("mine") == "1" {
		uid, ok := middleware.UserID(c)
		if !ok {
			response.Unauthorized(c, "login required")
			return
		}
		createdBy = &uid
		publicOnly = false
	}
	list, err := h.repo.List(c.Request.Context(), createdBy, publicOnly)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /events/:id. Call after RequireEventOwner.
func (h *Handler) Update(c *gin.Context) {
	e := FromContext(c)
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		e.StartsAt = t
	}
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		e.EndsAt = &t
	}
	if req.IsPublic != nil {
		e.IsPublic = *req.IsPublic
	}
	if req.MaxAttendees != nil {
		e.MaxAttendees = req.MaxAttendees
	}
	if req.ClearCapacity {
		e.MaxAttendees = nil
	}
	if err := h.repo.Update(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, e)
}
