package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/pkg/utils"
)

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

type fakeUsers struct {
	byEmail map[string]*models.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	u.ID = uuid.New()
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) List(context.Context) ([]models.UserPublic, error) {
	out := []models.UserPublic{}
	for _, u := range f.byEmail {
		out = append(out, u.ToPublic())
	}
	return out, nil
}

func newAuthRouter(store UserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, NewJWTService("secret", 1), nil)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_DefaultsToAttendee(t *testing.T) {
	store := &fakeUsers{byEmail: map[string]*models.User{}}
	r := newAuthRouter(store)

	w := postJSON(r, "/auth/register", map[string]string{
		"email": "Amina@Example.com", "password": "longenough", "full_name": "Amina",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	u := store.byEmail["amina@example.com"]
	require.NotNil(t, u)
	assert.Equal(t, models.RoleAttendee, u.Role)
	assert.True(t, utils.CheckPassword("longenough", u.Password))
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	r := newAuthRouter(&fakeUsers{byEmail: map[string]*models.User{}})
	w := postJSON(r, "/auth/register", map[string]string{
		"email": "x@example.com", "password": "longenough", "full_name": "X", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_RejectsPasswordBcryptWouldTruncate(t *testing.T) {
	store := &fakeUsers{byEmail: map[string]*models.User{}}
	w := postJSON(newAuthRouter(store), "/auth/register", map[string]string{
		"email": "x@example.com", "password": strings.Repeat("p", 73), "full_name": "X",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.byEmail)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := &fakeUsers{byEmail: map[string]*models.User{"x@example.com": {Email: "x@example.com"}}}
	r := newAuthRouter(store)
	w := postJSON(r, "/auth/register", map[string]string{
		"email": "x@example.com", "password": "longenough", "full_name": "X", "role": "organizer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)
	store := &fakeUsers{byEmail: map[string]*models.User{
		"org@example.com": {ID: uuid.New(), Email: "org@example.com", Password: hash, Role: models.RoleOrganizer},
	}}
	r := newAuthRouter(store)

	w := postJSON(r, "/auth/login", map[string]string{"email": "org@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, models.RoleOrganizer, body.Data.User.Role)

	w = postJSON(r, "/auth/login", map[string]string{"email": "org@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/auth/login", map[string]string{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
