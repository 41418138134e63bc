package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/journalize/internal/config"
)

// =========================================================================
// HELPERS
// =========================================================================

func testConfig() *config.Config {
	return &config.Config{
		Port:        0,
		Environment: "test",
		Store:       config.StoreMemory,
		JWTSecret:   "server-test-secret-0123456789",
		TokenTTL:    time.Hour,
		BcryptCost:  bcrypt.MinCost,
		CORSOrigins: []string{"http://localhost:5173"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func send(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func tokenOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

// =========================================================================
// ROUTING TESTS
// =========================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rr := send(s, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/user"},
		{http.MethodPost, "/api/change-password"},
		{http.MethodGet, "/api/journals"},
		{http.MethodPost, "/api/journals"},
		{http.MethodGet, "/api/journals/1"},
		{http.MethodPatch, "/api/journals/1"},
		{http.MethodDelete, "/api/journals/1"},
		{http.MethodGet, "/api/folders"},
		{http.MethodPost, "/api/folders"},
		{http.MethodGet, "/api/export"},
		{http.MethodPost, "/api/import"},
		{http.MethodPost, "/api/upload"},
	} {
		rr := send(s, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestJournalFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	rr := send(s, http.MethodPost, "/api/register", "", `{"username":"alice","password":"s3cret!"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	token := tokenOf(t, rr)

	rr = send(s, http.MethodPost, "/api/journals", token, `{"title":"T","type":"daily","date":"2024-01-01T00:00:00.000Z"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	// the user took id 1 from the shared counter
	assert.Equal(t, int64(2), created.ID)

	rr = send(s, http.MethodPatch, "/api/journals/2", token, `{"title":"X"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title":"X"`)

	rr = send(s, http.MethodDelete, "/api/journals/2", token, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = send(s, http.MethodGet, "/api/journals", token, "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig())

	// browsers send the header list lowercased
	for _, headers := range []string{"content-type", "authorization,content-type"} {
		req := httptest.NewRequest(http.MethodOptions, "/api/journals", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", headers)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		assert.NotEqual(t, http.StatusUnauthorized, rr.Code, "preflight must not hit auth")
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"), headers)
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"), headers)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestGitHubRoutesDisabledByDefault(t *testing.T) {
	s := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusNotFound, send(s, http.MethodGet, "/auth/github/login", "", "").Code)
}

func TestGitHubLoginEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.GitHubClientID = "id"
	cfg.GitHubClientSecret = "secret"
	cfg.GitHubCallbackURL = "http://localhost:8080/auth/github/callback"
	s := newTestServer(t, cfg)

	rr := send(s, http.MethodGet, "/auth/github/login", "", "")

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "https://github.com/login/oauth/authorize"))
}

// =========================================================================
// BACKEND SELECTION TESTS
// =========================================================================

func TestSQLiteStorePersists(t *testing.T) {
	cfg := testConfig()
	cfg.Store = config.StoreSQLite
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "journalize.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	first, err := New(cfg, logger)
	require.NoError(t, err)
	rr := send(first, http.MethodPost, "/api/register", "", `{"username":"alice","password":"s3cret!"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, first.Close())

	second := newTestServer(t, cfg)
	rr = send(second, http.MethodPost, "/api/login", "", `{"username":"alice","password":"s3cret!"}`)
	assert.Equal(t, http.StatusOK, rr.Code, "account must survive a restart")
}

func TestRedisRevocation(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	s := newTestServer(t, cfg)

	rr := send(s, http.MethodPost, "/api/register", "", `{"username":"alice","password":"s3cret!"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	token := tokenOf(t, rr)

	require.Equal(t, http.StatusOK, send(s, http.MethodPost, "/api/logout", token, "").Code)

	assert.Len(t, mr.Keys(), 1)
	assert.True(t, strings.HasPrefix(mr.Keys()[0], "journalize:revoked:"))
	assert.Equal(t, http.StatusUnauthorized, send(s, http.MethodGet, "/api/user", token, "").Code)
}

func TestRedisOutageIsServerError(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	s := newTestServer(t, cfg)

	rr := send(s, http.MethodPost, "/api/register", "", `{"username":"alice","password":"s3cret!"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	token := tokenOf(t, rr)

	mr.Close()

	rr = send(s, http.MethodGet, "/api/user", token, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"An internal error occurred"}`, rr.Body.String())
}

func TestNew_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig()
		cfg.RedisURL = "redis://127.0.0.1:1/0"
		_, err := New(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.JWTSecret = "short"
		_, err := New(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		cfg := testConfig()
		cfg.BcryptCost = 99
		_, err := New(cfg, logger)
		assert.Error(t, err)
	})
}
