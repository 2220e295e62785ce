package emaillogs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/internal/registrations"
)

type fakeLogs map[uuid.UUID][]*models.EmailLog

func (f fakeLogs) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*models.EmailLog, error) {
	return f[eventID], nil
}

type fakeRegs map[uuid.UUID]*models.Registration

func (f fakeRegs) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, ok := f[id]
	if !ok {
		return nil, registrations.ErrNotFound
	}
	return reg, nil
}

type fakeNotifier struct {
	sent []uuid.UUID
	err  error
}

func (n *fakeNotifier) RegistrationAdmitted(_ context.Context, reg *models.Registration, _ *models.Event) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, reg.ID)
	return nil
}

// withEvent stands in for events.RequireEventOwner.
func withEvent(e *models.Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(events.ContextEvent, e)
		c.Next()
	}
}

func setupRouter(h *Handler, e *models.Event) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/events/:id/emails", withEvent(e), h.ListByEvent)
	r.POST("/events/:id/emails/resend", withEvent(e), h.Resend)
	return r
}

func resend(r http.Handler, eventID uuid.UUID, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/events/"+eventID.String()+"/emails/resend", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListByEvent(t *testing.T) {
	e := &models.Event{ID: uuid.New()}
	logs := fakeLogs{e.ID: {{ID: uuid.New(), EventID: &e.ID, EmailType: models.EmailTypeRegistrationConfirmation, Status: models.EmailLogStatusSent}}}
	r := setupRouter(NewHandler(logs, fakeRegs{}, &fakeNotifier{}, nil), e)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+e.ID.String()+"/emails", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Data []models.EmailLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, models.EmailLogStatusSent, out.Data[0].Status)
}

func TestResend(t *testing.T) {
	e := &models.Event{ID: uuid.New(), Title: "Forum"}
	own := &models.Registration{ID: uuid.New(), EventID: e.ID, Email: "a@x.com"}
	foreign := &models.Registration{ID: uuid.New(), EventID: uuid.New(), Email: "b@x.com"}
	regs := fakeRegs{own.ID: own, foreign.ID: foreign}

	notifier := &fakeNotifier{}
	r := setupRouter(NewHandler(fakeLogs{}, regs, notifier, nil), e)

	assert.Equal(t, http.StatusOK, resend(r, e.ID, gin.H{"registration_id": own.ID}).Code)
	assert.Equal(t, []uuid.UUID{own.ID}, notifier.sent)

	assert.Equal(t, http.StatusNotFound, resend(r, e.ID, gin.H{"registration_id": foreign.ID}).Code)
	assert.Equal(t, http.StatusNotFound, resend(r, e.ID, gin.H{"registration_id": uuid.New()}).Code)
	assert.Equal(t, http.StatusBadRequest, resend(r, e.ID, gin.H{"registration_id": "nope"}).Code)
	assert.Len(t, notifier.sent, 1)

	down := setupRouter(NewHandler(fakeLogs{}, regs, &fakeNotifier{err: errors.New("redis down")}, nil), e)
	assert.Equal(t, http.StatusServiceUnavailable, resend(down, e.ID, gin.H{"registration_id": own.ID}).Code)
}
