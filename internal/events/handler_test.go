package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelevent/backend/internal/middleware"
	"github.com/panelevent/backend/internal/models"
)

type fakeStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
}

func newFakeStore(evs ...*models.Event) *fakeStore {
	f := &fakeStore{events: map[uuid.UUID]*models.Event{}}
	for _, e := range evs {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, e *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeStore) List(_ context.Context, createdBy *uuid.UUID, publicOnly bool) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []models.Event{}
	for _, e := range f.events {
		if createdBy != nil && e.CreatedBy != *createdBy {
			continue
		}
		if publicOnly && !e.IsPublic {
			continue
		}
		list = append(list, *e)
	}
	return list, nil
}

func (f *fakeStore) Update(_ context.Context, e *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; !ok {
		return ErrNotFound
	}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func asUser(id uuid.UUID, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextUserRole, string(role))
		c.Next()
	}
}

func setupRouter(store *fakeStore, user gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store)
	r := gin.New()
	if user != nil {
		r.Use(user)
	}
	r.GET("/events", h.List)
	r.GET("/events/:id", h.GetByID)
	r.POST("/events", h.Create)
	r.PATCH("/events/:id", RequireEventOwner(store), h.Update)
	return r
}

func send(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_GetByIDHidesPrivateEvents(t *testing.T) {
	owner := uuid.New()
	private := &models.Event{ID: uuid.New(), Title: "Board", CreatedBy: owner, StartsAt: time.Now()}
	store := newFakeStore(private)
	path := "/events/" + private.ID.String()

	anonymous := send(setupRouter(store, nil), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, anonymous.Code)

	missing := send(setupRouter(store, nil), http.MethodGet, "/events/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, missing.Body.String(), anonymous.Body.String())

	stranger := send(setupRouter(store, asUser(uuid.New(), models.RoleOrganizer)), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, stranger.Code)

	assert.Equal(t, http.StatusOK, send(setupRouter(store, asUser(owner, models.RoleOrganizer)), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, send(setupRouter(store, asUser(uuid.New(), models.RoleAdmin)), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, send(setupRouter(store, nil), http.MethodGet, "/events/nope", nil).Code)
}

func TestHandler_CreateAndUpdate(t *testing.T) {
	owner := uuid.New()
	store := newFakeStore()
	r := setupRouter(store, asUser(owner, models.RoleOrganizer))

	w := send(r, http.MethodPost, "/events", gin.H{
		"title":         "Forum",
		"starts_at":     "2024-06-01T09:00:00Z",
		"is_public":     true,
		"max_attendees": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data models.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, owner, created.Data.CreatedBy)
	require.NotNil(t, created.Data.MaxAttendees)

	path := "/events/" + created.Data.ID.String()
	w = send(r, http.MethodPatch, path, gin.H{"location": "Dakar", "clear_max_attendees": true})
	require.Equal(t, http.StatusOK, w.Code)
	saved, err := store.GetByID(context.Background(), created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dakar", saved.Location)
	assert.Nil(t, saved.MaxAttendees)

	other := setupRouter(store, asUser(uuid.New(), models.RoleOrganizer))
	assert.Equal(t, http.StatusForbidden, send(other, http.MethodPatch, path, gin.H{"title": "x"}).Code)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/events", gin.H{"title": "x", "starts_at": "tomorrow"}).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/events", gin.H{"title": "x", "starts_at": "2024-06-01T09:00:00Z", "max_attendees": 0}).Code)
}

func TestHandler_List(t *testing.T) {
	owner := uuid.New()
	store := newFakeStore(
		&models.Event{ID: uuid.New(), Title: "Public", IsPublic: true, CreatedBy: uuid.New()},
		&models.Event{ID: uuid.New(), Title: "Mine", CreatedBy: owner},
	)

	var out struct {
		Data []models.Event `json:"data"`
	}
	w := send(setupRouter(store, nil), http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Public", out.Data[0].Title)

	assert.Equal(t, http.StatusUnauthorized, send(setupRouter(store, nil), http.MethodGet, "/events?mine=1", nil).Code)

	w = send(setupRouter(store, asUser(owner, models.RoleOrganizer)), http.MethodGet, "/events?mine=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Mine", out.Data[0].Title)
}
