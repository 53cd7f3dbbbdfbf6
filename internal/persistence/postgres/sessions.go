package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/example/sparkboard/internal/persistence"
)

const sessionColumns = `id, user_id, token, expires_at, created_at, updated_at, revoked_at`

// CreateSession stores a new session token.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" || session.ExpiresAt.IsZero() {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (`+sessionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+sessionColumns,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt, session.UpdatedAt, session.RevokedAt,
	)
	created, err := scanSession(row)
	return created, mapError(err)
}

// GetSession retrieves a session by token.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token=$1`, strings.TrimSpace(token)))
	return session, mapError(err)
}

// RevokeSession marks a session revoked, keeping an earlier revocation time.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE sessions
		SET revoked_at = COALESCE(revoked_at, $2), updated_at = $2
		WHERE token = $1
		RETURNING `+sessionColumns,
		strings.TrimSpace(token), revokedAt,
	)
	session, err := scanSession(row)
	return session, mapError(err)
}

// DeleteExpiredSessions removes sessions expired at reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, reference)
	return mapError(err)
}

func scanSession(row interface{ Scan(...any) error }) (persistence.Session, error) {
	var session persistence.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.RevokedAt,
	); err != nil {
		return persistence.Session{}, err
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	if session.RevokedAt != nil {
		t := session.RevokedAt.UTC()
		session.RevokedAt = &t
	}
	return session, nil
}
