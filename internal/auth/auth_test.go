package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"outgo/internal/core"
)

type fakeUsers struct {
	byName map[string]*core.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: make(map[string]*core.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, user *core.User) error {
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	stored := *user
	f.byName[user.Username] = &stored
	return nil
}

func (f *fakeUsers) FindUserByUsername(_ context.Context, username string) (*core.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

type fakeSessions struct {
	tokens map[string]sessionRecord
	users  *fakeUsers
}

type sessionRecord struct {
	userID    int64
	expiresAt time.Time
}

func newFakeSessions(users *fakeUsers) *fakeSessions {
	return &fakeSessions{tokens: make(map[string]sessionRecord), users: users}
}

func (f *fakeSessions) CreateSession(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	f.tokens[token] = sessionRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeSessions) SessionUser(_ context.Context, token string) (*core.User, error) {
	rec, ok := f.tokens[token]
	if !ok || time.Now().After(rec.expiresAt) {
		return nil, nil
	}
	for _, u := range f.users.byName {
		if u.ID == rec.userID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeSessions) DeleteExpiredSessions(_ context.Context) (int64, error) {
	var n int64
	for token, rec := range f.tokens {
		if time.Now().After(rec.expiresAt) {
			delete(f.tokens, token)
			n++
		}
	}
	return n, nil
}

func newTestService() (*Service, *fakeUsers, *fakeSessions) {
	users := newFakeUsers()
	sessions := newFakeSessions(users)
	return NewService(users, sessions), users, sessions
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService()

	user, err := svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, "alice", user.Username)
	require.NotEqual(t, "hunter2hunter2", user.PasswordHash, "hash, not plaintext")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "   ", "hunter2hunter2", "hunter2hunter2")
	require.ErrorIs(t, err, ErrEmptyUsername)

	_, err = svc.Register(context.Background(), "alice", "hunter2hunter2", "different2")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	// Too short.
	_, err = svc.Register(context.Background(), "alice", "abc1", "abc1")
	require.ErrorIs(t, err, ErrWeakPassword)

	// No digit.
	_, err = svc.Register(context.Background(), "alice", "onlyletters", "onlyletters")
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginAndSession(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "alice", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "alice", user.Username)

	resolved, err := svc.UserByToken(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, user.ID, resolved.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice", "wrongpassword1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "hunter2hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "alice", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	resolved, err := svc.UserByToken(context.Background(), token)
	require.NoError(t, err)
	require.Nil(t, resolved)

	// Empty and unknown tokens are quiet no-ops.
	require.NoError(t, svc.Logout(context.Background(), ""))
	resolved, err = svc.UserByToken(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestPurgeExpired(t *testing.T) {
	svc, _, sessions := newTestService()

	_, err := svc.Register(context.Background(), "alice", "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, err)
	require.NoError(t, sessions.CreateSession(context.Background(), "stale", 1, time.Now().Add(-time.Minute)))
	require.NoError(t, sessions.CreateSession(context.Background(), "fresh", 1, time.Now().Add(time.Hour)))

	require.NoError(t, svc.PurgeExpired(context.Background()))
	require.NotContains(t, sessions.tokens, "stale")
	require.Contains(t, sessions.tokens, "fresh")
}
