package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/sparkboard/internal/persistence"
)

const userColumns = `id, email, name, bio, avatar_url, role, password_hash, created_at, updated_at`

// CreateUser inserts a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if user.Role == "" {
		user.Role = persistence.RoleStudent
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	_, err := s.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		user.ID, normalizeEmail(user.Email), user.Name, user.Bio, user.AvatarURL,
		user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	return mapError(err)
}

// UpdateUser replaces the mutable fields of an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email=$2, name=$3, bio=$4, avatar_url=$5, role=$6, password_hash=$7, updated_at=$8
		WHERE id=$1
	`, user.ID, normalizeEmail(user.Email), user.Name, user.Bio, user.AvatarURL, user.Role, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	return user, mapError(err)
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, normalizeEmail(email)))
	return user, mapError(err)
}

// ListUsers returns users ordered by name (unnamed accounts last), then email.
func (s *Storage) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if filter.Role != "" {
		query += ` WHERE role=$1`
		args = append(args, filter.Role)
	}
	query += ` ORDER BY name IS NULL, lower(name), email, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.User, error) {
		return scanUser(row)
	})
	return users, mapError(err)
}

// DeleteUser removes a user; dependent rows cascade.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func scanUser(row pgx.Row) (persistence.User, error) {
	var u persistence.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Bio, &u.AvatarURL, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
