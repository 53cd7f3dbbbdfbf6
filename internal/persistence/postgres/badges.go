package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/sparkboard/internal/persistence"
)

const badgeColumns = `id, title, description, image_url, created_at, updated_at`

// CreateBadge inserts a badge into the catalog.
func (s *Storage) CreateBadge(ctx context.Context, badge persistence.Badge) error {
	if badge.ID == "" || strings.TrimSpace(badge.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}
	if badge.UpdatedAt.IsZero() {
		badge.UpdatedAt = badge.CreatedAt
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO badges (`+badgeColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		badge.ID, badge.Title, badge.Description, badge.ImageURL, badge.CreatedAt, badge.UpdatedAt)
	return mapError(err)
}

// UpdateBadge updates an existing badge.
func (s *Storage) UpdateBadge(ctx context.Context, badge persistence.Badge) error {
	if badge.ID == "" || strings.TrimSpace(badge.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if badge.UpdatedAt.IsZero() {
		badge.UpdatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE badges SET title=$2, description=$3, image_url=$4, updated_at=$5 WHERE id=$1
	`, badge.ID, badge.Title, badge.Description, badge.ImageURL, badge.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

// GetBadge retrieves a badge by ID.
func (s *Storage) GetBadge(ctx context.Context, id string) (persistence.Badge, error) {
	badge, err := scanBadge(s.pool.QueryRow(ctx, `SELECT `+badgeColumns+` FROM badges WHERE id=$1`, id))
	return badge, mapError(err)
}

// ListBadges returns the catalog newest first.
func (s *Storage) ListBadges(ctx context.Context) ([]persistence.Badge, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+badgeColumns+` FROM badges ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, mapError(err)
	}
	badges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.Badge, error) {
		return scanBadge(row)
	})
	return badges, mapError(err)
}

// DeleteBadge removes a badge; its awards cascade.
func (s *Storage) DeleteBadge(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM badges WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func scanBadge(row pgx.Row) (persistence.Badge, error) {
	var b persistence.Badge
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return persistence.Badge{}, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}
