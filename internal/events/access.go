package events

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/panelevent/backend/internal/middleware"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/pkg/response"
)

// ContextEvent is the context key for the event loaded by RequireEventOwner.
const ContextEvent = "event"

// RequireEventOwner allows admins and the organizer who created the event in :id.
// Call after JWT. The loaded event is stored under ContextEvent.
func RequireEventOwner(reader Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid event id")
			c.Abort()
			return
		}
		e, err := reader.GetByID(c.Request.Context(), eventID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				response.NotFound(c, "event not found")
			} else {
				response.Internal(c, "failed to load event")
			}
			c.Abort()
			return
		}
		userID, _ := middleware.UserID(c)
		if !middleware.IsAdmin(c) && e.CreatedBy != userID {
			response.Forbidden(c, "only the event organizer can do this")
			c.Abort()
			return
		}
		c.Set(ContextEvent, e)
		c.Next()
	}
}

// FromContext returns the event stored by RequireEventOwner.
func FromContext(c *gin.Context) *models.Event {
	v, ok := c.Get(ContextEvent)
	if !ok {
		return nil
	}
	e, _ := v.(*models.Event)
	return e
}
