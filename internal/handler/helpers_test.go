package handler_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/journalize/internal/auth"
	"github.com/sakif/journalize/internal/handler"
	"github.com/sakif/journalize/internal/repository/memory"
	"github.com/sakif/journalize/internal/service"
)

// =========================================================================
// TEST API
// =========================================================================

// testAPI mounts the real handlers and services on a memory store, behind
// the real token middleware.
type testAPI struct {
	router *chi.Mux
	store  *memory.Store
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithGitHub(t, nil)
}

func newTestAPIWithGitHub(t *testing.T, gh *auth.GitHubProvider) *testAPI {
	t.Helper()
	logger := newTestLogger()

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords, err := auth.NewPasswordService(bcrypt.MinCost)
	require.NoError(t, err)
	revoker := auth.NewMemoryRevoker()
	store := memory.New()

	accounts := service.NewAuthService(store, tokens, passwords, revoker, logger)
	authH := handler.NewAuthHandler(accounts, gh, false, logger)
	journalH := handler.NewJournalHandler(service.NewJournalService(store, store, logger), logger)
	folderH := handler.NewFolderHandler(service.NewFolderService(store, logger), logger)
	transferH := handler.NewTransferHandler(service.NewTransferService(store, store, logger), logger)
	authn := auth.NewAuthenticator(tokens, revoker, logger)

	r := chi.NewRouter()
	r.Get("/healthz", handler.HandleHealth)
	r.Get("/auth/github/login", authH.HandleGitHubLogin)
	r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
		r.Post("/logout", authH.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)
			r.Get("/user", authH.HandleMe)
			r.Post("/change-password", authH.HandleChangePassword)

			r.Post("/journals", journalH.HandleCreate)
			r.Get("/journals", journalH.HandleList)
			r.Get("/journals/{id}", journalH.HandleGetByID)
			r.Patch("/journals/{id}", journalH.HandleUpdate)
			r.Delete("/journals/{id}", journalH.HandleDelete)

			r.Post("/folders", folderH.HandleCreate)
			r.Get("/folders", folderH.HandleList)

			r.Get("/export", transferH.HandleExport)
			r.Post("/import", transferH.HandleImport)
			r.Post("/upload", handler.HandleUpload)
		})
	})

	return &testAPI{router: r, store: store}
}

// do sends a request with an optional Bearer token and JSON body.
func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

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
	a.router.ServeHTTP(rr, req)
	return rr
}

type authBody struct {
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Token string `json:"token"`
}

// signUp registers username and returns its id and Bearer token.
func (a *testAPI) signUp(t *testing.T, username string) (int64, string) {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/api/register", "", `{"username":"`+username+`","password":"s3cret!"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decode[authBody](t, rr)
	require.NotEmpty(t, body.Token)
	return body.User.ID, body.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}
