package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/auth"
	"github.com/sakif/journalize/internal/model"
	"github.com/sakif/journalize/internal/repository"
)

// AuthService owns accounts and sessions.
//
//	AuthHandler (HTTP) → AuthService → UserRepository
//	                               ↘ TokenService, PasswordService, Revoker
//
// It never touches cookies; the handler turns an AuthResult into one.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	revoker   auth.Revoker
	logger    *slog.Logger

	// registerMu serializes the username check and the insert so two
	// concurrent sign-ups can't both claim a name on the memory store.
	registerMu sync.Mutex
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	revoker auth.Revoker,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		revoker:   revoker,
		logger:    logger,
	}
}

// AuthResult bundles the user and a freshly issued session token.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// errBadCredentials covers both "no such user" and "wrong password" so the
// response doesn't reveal which usernames exist.
var errBadCredentials = apperror.Unauthenticated("invalid username or password")

// Register creates a password account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, req CredentialsRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validationError(req.validateNew()); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("registering %q: %w", req.Username, err)
	}

	user, err := s.createUser(ctx, model.UserInput{Username: req.Username, PasswordHash: hash})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID), slog.String("username", user.Username))
	return s.issue(user)
}

func (s *AuthService) createUser(ctx context.Context, in model.UserInput) (*model.User, error) {
	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	if _, err := s.users.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, apperror.Conflict("username", in.Username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking username %q: %w", in.Username, err)
	}

	user, err := s.users.CreateUser(ctx, in)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", in.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user %q: %w", in.Username, err)
	}
	return user, nil
}

// Login checks a username and password and issues a session token.
func (s *AuthService) Login(ctx context.Context, req CredentialsRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validationError(req.validateLogin()); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", req.Username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("username", req.Username))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("verifying password for %q: %w", req.Username, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return s.issue(user)
}

// Logout revokes token until it would have expired. An invalid or already
// expired token needs no revoking, so that is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}

	if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		s.logger.Error("failed to revoke token",
			slog.Int64("userID", claims.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("revoking token: %w", err)
	}

	s.logger.Info("user logged out", slog.Int64("userID", claims.UserID))
	return nil
}

// CurrentUser returns the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		// a valid token for a user that no longer exists
		return nil, apperror.Unauthenticated("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %d: %w", userID, err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. A wrong current password is a validation error on that field, not a
// 401: the session itself is fine.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := validationError(req.validate()); err != nil {
		return err
	}

	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.ValidationFailed("currentPassword", "current password is incorrect")
		}
		return fmt.Errorf("verifying password for user %d: %w", userID, err)
	}

	hash, err := s.passwords.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("storing new password for user %d: %w", userID, err)
	}

	s.logger.Info("password changed", slog.Int64("userID", userID))
	return nil
}

// LoginOrRegisterGitHub finishes the GitHub OAuth flow. The first sign-in
// creates an account named after the GitHub login; later sign-ins find it
// by GitHub id, so renaming on GitHub doesn't split the account.
//
// GitHub accounts get an empty password hash, which never verifies, so
// they can't be signed into with a password.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		s.logger.Info("user authenticated via GitHub", slog.Int64("userID", user.ID), slog.String("login", gh.Login))
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up GitHub user %d: %w", gh.ID, err)
	}

	githubID := gh.ID
	username := githubUsername(gh.Login)
	user, err = s.createUser(ctx, model.UserInput{Username: username, GitHubID: &githubID})
	if errors.Is(err, apperror.ErrConflict) {
		// The name belongs to a password account; the GitHub id makes it unique.
		user, err = s.createUser(ctx, model.UserInput{
			Username: withSuffix(username, "-"+strconv.FormatInt(gh.ID, 10)),
			GitHubID: &githubID,
		})
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered via GitHub", slog.Int64("userID", user.ID), slog.String("username", user.Username))
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// githubUsername maps a GitHub login onto the local username rules. GitHub
// logins are already alphanumeric plus '-', so this mostly pads short names.
func githubUsername(login string) string {
	var b strings.Builder
	for _, r := range login {
		if r < 128 && usernamePattern.MatchString(string(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	for len(name) < MinUsernameLength {
		name += "_"
	}
	return withSuffix(name, "")
}

// withSuffix appends suffix, trimming name so the result fits the length
// limit.
func withSuffix(name, suffix string) string {
	if limit := MaxUsernameLength - len(suffix); len(name) > limit {
		name = name[:limit]
	}
	return name + suffix
}
