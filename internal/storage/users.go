package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"outgo/internal/core"
)

// CreateUser persists a new user and assigns its id. Username uniqueness is
// enforced by the unique index; violations surface as an error.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, now)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now

	slog.InfoContext(ctx, "User created", "id", u.ID, "username", u.Username)
	return nil
}

// FindUser returns the user with the given id, or nil when absent.
func (r *SQLiteRepository) FindUser(ctx context.Context, id int64) (*core.User, error) {
	return r.queryUser(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

// FindUserByUsername returns the user with the given username, or nil.
func (r *SQLiteRepository) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.queryUser(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) queryUser(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// CreateSession stores a session token for a user.
func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionUser resolves a session token to its user. Expired or unknown
// tokens resolve to nil.
func (r *SQLiteRepository) SessionUser(ctx context.Context, token string) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.password_hash, u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = ? AND s.expires_at > ?`,
		token, time.Now().UTC()).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return &u, nil
}

// DeleteSession removes a session token. Removing an unknown token is a no-op.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
