package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// values it stores in a request context.
type contextKey string

const (
	userIDKey contextKey = "userID"
	claimsKey contextKey = "claims"
)

// CookieName is the HttpOnly cookie that carries the session token.
const CookieName = "token"

var errNoToken = errors.New("auth: no token")

// ErrRevocationCheck wraps a failure of the revocation list itself. The
// token may well be valid, so callers must not treat it as a bad token.
var ErrRevocationCheck = errors.New("auth: revocation check failed")

// Authenticator resolves the caller of a request from its token.
type Authenticator struct {
	tokens  *TokenService
	revoker Revoker
	logger  *slog.Logger
}

func NewAuthenticator(tokens *TokenService, revoker Revoker, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revoker: revoker, logger: logger}
}

// RequireAuth rejects requests without a valid, unrevoked token with 401 and
// stores the caller's id and claims in the context of the rest. When the
// revocation list can't be reached the request fails with 500.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.Authenticate(r)
		if errors.Is(err, ErrRevocationCheck) {
			a.logger.Error("failed to check token revocation",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal_error","message":"An internal error occurred"}`))
			return
		}
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Authenticate validates the request's token and checks it against the
// revocation list.
func (a *Authenticator) Authenticate(r *http.Request) (Claims, error) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return Claims{}, errNoToken
	}

	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return Claims{}, err
	}

	revoked, err := a.revoker.IsRevoked(r.Context(), claims.TokenID)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrRevocationCheck, err)
	}
	if revoked {
		return Claims{}, errors.New("auth: token revoked")
	}

	return claims, nil
}

// WithClaims returns ctx carrying an authenticated caller. Exported so
// handler tests can fake an authenticated request.
func WithClaims(ctx context.Context, c Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, c.UserID)
	return context.WithValue(ctx, claimsKey, c)
}

// UserIDFromContext returns the authenticated user's id, or (0, false) if
// the request never passed RequireAuth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// ClaimsFromContext returns the full claims of the caller's token.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// TokenFromRequest prefers the Authorization header and falls back to the
// cookie the browser sends automatically.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
