// Package auth issues and checks the credentials that identify a caller.
//
// AUTHENTICATION FLOW:
//  1. The user registers or logs in with username + password (or finishes
//     the optional GitHub OAuth flow).
//  2. The server signs a JWT whose subject is the user's id and stores it in
//     an HttpOnly "token" cookie. The same token is returned in the JSON body
//     for non-browser clients, which send it as "Authorization: Bearer".
//  3. RequireAuth validates the token on every protected request and puts
//     the user id in the request context.
//  4. Logout adds the token's id (jti) to a Revoker until the token would
//     have expired anyway.
//
// JWT STRUCTURE (three base64 parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"42","jti":"cv37rs3pp9olc6atsptg","exp":1234567890,...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "journalize"

// DefaultTokenTTL is how long a session lasts when the config doesn't say.
const DefaultTokenTTL = 24 * time.Hour

// TokenService handles JWT creation and validation with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a non-positive ttl falls back to DefaultTokenTTL.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of tokens this service issues. Handlers use it as the
// cookie Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Claims is what a validated token tells us about its bearer.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// Issue signs a new token for userID.
//
// Every token gets a fresh xid as its jti so logout can revoke exactly one
// session without touching the user's other devices.
func (s *TokenService) Issue(userID int64) (string, Claims, error) {
	return s.issue(userID, s.ttl)
}

func (s *TokenService) issue(userID int64, ttl time.Duration) (string, Claims, error) {
	now := s.now()
	c := Claims{
		UserID:    userID,
		TokenID:   xid.New().String(),
		ExpiresAt: now.Add(ttl),
	}

	rc := jwt.RegisteredClaims{
		ID:        c.TokenID,
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("auth: signing token: %w", err)
	}

	// NumericDate has second precision; report what the token actually says.
	c.ExpiresAt = rc.ExpiresAt.Time
	return signed, c, nil
}

// Validate parses and verifies a token string.
//
// The jwt library checks the signature, expiry and issuer. WithValidMethods
// pins HS256 so a token claiming "alg":"none" is rejected.
func (s *TokenService) Validate(tokenStr string) (Claims, error) {
	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&rc,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, errors.New("auth: token expired")
		}
		return Claims{}, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, errors.New("auth: token has no valid subject")
	}
	if rc.ID == "" {
		return Claims{}, errors.New("auth: token has no id")
	}

	return Claims{
		UserID:    userID,
		TokenID:   rc.ID,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}
