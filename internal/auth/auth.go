// Package auth implements username/password registration and cookie-token
// sessions on top of the user and session repositories.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"outgo/internal/core"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and contain a digit")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmptyUsername      = errors.New("username must not be empty")
)

// SessionTTL bounds how long a login stays valid without re-authenticating.
const SessionTTL = 24 * time.Hour

// UserRepository is the slice of storage the service needs for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *core.User) error
	FindUserByUsername(ctx context.Context, username string) (*core.User, error)
}

// SessionRepository persists opaque login tokens.
type SessionRepository interface {
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	SessionUser(ctx context.Context, token string) (*core.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type Service struct {
	users    UserRepository
	sessions SessionRepository
	now      func() time.Time
}

func NewService(users UserRepository, sessions SessionRepository) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		now:      time.Now,
	}
}

// Register creates an account after checking password strength and username
// availability. The verification password must match exactly.
func (s *Service) Register(ctx context.Context, username, password, verify string) (*core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if password != verify {
		return nil, ErrPasswordMismatch
	}
	if !strongEnough(password) {
		return nil, ErrWeakPassword
	}

	existing, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{Username: username, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies the credentials and mints a session token. The same
// ErrInvalidCredentials covers unknown usernames and wrong passwords.
func (s *Service) Login(ctx context.Context, username, password string) (string, *core.User, error) {
	user, err := s.users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	expiresAt := s.now().Add(SessionTTL)
	if err := s.sessions.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, user, nil
}

// Logout removes the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// UserByToken resolves a session token to its user, nil when the token is
// unknown or expired.
func (s *Service) UserByToken(ctx context.Context, token string) (*core.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := s.sessions.SessionUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return user, nil
}

// PurgeExpired drops stale sessions. Meant for a periodic sweep.
func (s *Service) PurgeExpired(ctx context.Context) error {
	n, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
	return nil
}

func strongEnough(password string) bool {
	if len(password) < 8 {
		return false
	}
	for _, r := range password {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
