package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chat-relay/internal/domain"
	"chat-relay/internal/service"
)

type mockUserRepo struct {
	byID   map[string]domain.User
	byName map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:   make(map[string]domain.User),
		byName: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.byID[user.ID] = user
	m.byName[user.Username] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	id, ok := m.byName[username]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.byID[id], nil
}

func (m *mockUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := m.byName[username]
	return ok, nil
}

func newTestRouter(t *testing.T, users *mockUserRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	authSvc := service.NewAuthService(logger, users, service.NewLoginRateLimiter(time.Minute, 100))
	jwtSvc := service.NewJWTServiceWithStore("test-secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	authH := NewAuthHandler(logger, authSvc, jwtSvc)

	noop := func(c *gin.Context) { c.Status(http.StatusOK) }
	return NewRouter(logger, authH, jwtSvc, noop, noop)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t, newMockUserRepo())

	rec := postJSON(t, router, "/auth/register", gin.H{"username": "alice", "password": "pw123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/auth/register", gin.H{"username": "alice", "password": "other"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/auth/register", gin.H{"username": "bob"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	users := newMockUserRepo()
	router := newTestRouter(t, users)

	rec := postJSON(t, router, "/auth/register", gin.H{"username": "alice", "password": "pw123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}

	rec = postJSON(t, router, "/auth/login", gin.H{"username": "alice", "password": "pw123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair in response")
	}

	rec = postJSON(t, router, "/auth/login", gin.H{"username": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	users := newMockUserRepo()
	router := newTestRouter(t, users)

	postJSON(t, router, "/auth/register", gin.H{"username": "alice", "password": "pw123"})
	rec := postJSON(t, router, "/auth/login", gin.H{"username": "alice", "password": "pw123"})

	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": resp.Tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on refresh, got %d", rec.Code)
	}

	var refreshed struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}

	rec = postJSON(t, router, "/auth/logout", gin.H{"refresh_token": refreshed.Tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": refreshed.Tokens.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked refresh token, got %d", rec.Code)
	}
}

func TestWSRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t, newMockUserRepo())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestWSRouteAcceptsQueryToken(t *testing.T) {
	users := newMockUserRepo()
	router := newTestRouter(t, users)

	postJSON(t, router, "/auth/register", gin.H{"username": "alice", "password": "pw123"})
	rec := postJSON(t, router, "/auth/login", gin.H{"username": "alice", "password": "pw123"})

	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+resp.Tokens.AccessToken, nil)
	wsRec := httptest.NewRecorder()
	router.ServeHTTP(wsRec, req)
	if wsRec.Code != http.StatusOK {
		t.Fatalf("expected middleware to pass a valid query token, got %d", wsRec.Code)
	}
}
