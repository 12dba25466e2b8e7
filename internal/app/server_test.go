package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/session"
	"crewdesk_backend/internal/user"
)

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		GinMode:             gin.TestMode,
		ServerHost:          "127.0.0.1",
		ServerPort:          "0",
		CORSAllowedOrigins:  []string{"http://localhost:5173"},
		AvatarStorageDriver: config.StorageDriverLocal,
		AvatarLocalPath:     t.TempDir(),
		AvatarMaxBytes:      5 * 1024 * 1024,
		LoginPath:           "/login",
		SessionCookieName:   "crewdesk_session",
		SessionTTL:          time.Hour,
	}
	logger := zap.NewNop()
	registry := session.NewRegistry(session.RegistryConfigFrom(cfg), session.Dependencies{}, logger)
	srv, err := NewServer(cfg, logger,
		user.NewHandler(nil, cfg, logger),
		session.NewHandler(registry, nil, nil, logger),
		registry,
		nil,
	)
	require.NoError(t, err)
	return srv, cfg
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}

func TestServer_GuardedRouteWithoutSession(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("API call gets 401 with login location", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Accept", "application/json")
		srv.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("browser navigation is redirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Accept", "text/html")
		srv.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})
}

func TestServer_SessionWithoutCookieIsSignedOut(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":null`)
	assert.Contains(t, w.Body.String(), `"loading":false`)
}

func TestServer_ServesLocalAvatars(t *testing.T) {
	srv, cfg := newTestServer(t)
	dir := filepath.Join(cfg.AvatarLocalPath, "avatars")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "u123"), []byte("img"), 0o644))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/avatars/u123", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "img", w.Body.String())
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
