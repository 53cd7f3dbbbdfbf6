package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/sparkboard/internal/persistence"
)

// BadgeRepository implements persistence.BadgeRepository using SQLite
type BadgeRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBadgeRepository creates a new SQLite badge repository
func NewBadgeRepository(pool *ConnectionPool) *BadgeRepository {
	return &BadgeRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const badgeColumns = `id, title, description, image_url, created_at, updated_at`

// CreateBadge inserts a new badge into the catalog
func (r *BadgeRepository) CreateBadge(ctx context.Context, badge persistence.Badge) error {
	if badge.ID == "" || strings.TrimSpace(badge.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}
	if badge.UpdatedAt.IsZero() {
		badge.UpdatedAt = badge.CreatedAt
	}

	_, err := r.helper.Exec(ctx, `INSERT INTO badges (`+badgeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		badge.ID,
		badge.Title,
		badge.Description,
		badge.ImageURL,
		formatTime(badge.CreatedAt),
		formatTime(badge.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateBadge updates an existing badge in the catalog
func (r *BadgeRepository) UpdateBadge(ctx context.Context, badge persistence.Badge) error {
	if badge.ID == "" || strings.TrimSpace(badge.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if badge.UpdatedAt.IsZero() {
		badge.UpdatedAt = time.Now().UTC()
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE badges
		SET title = ?, description = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`, badge.Title, badge.Description, badge.ImageURL, formatTime(badge.UpdatedAt), badge.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetBadge retrieves a badge by ID
func (r *BadgeRepository) GetBadge(ctx context.Context, id string) (persistence.Badge, error) {
	if id == "" {
		return persistence.Badge{}, persistence.ErrNotFound
	}
	badge, err := scanBadge(r.helper.QueryRow(ctx, `SELECT `+badgeColumns+` FROM badges WHERE id = ?`, id))
	if err != nil {
		return persistence.Badge{}, r.mapper.MapError(err)
	}
	return badge, nil
}

// ListBadges returns the catalog newest first.
func (r *BadgeRepository) ListBadges(ctx context.Context) ([]persistence.Badge, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+badgeColumns+` FROM badges ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var badges []persistence.Badge
	for rows.Next() {
		badge, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, badge)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return badges, nil
}

// DeleteBadge removes a badge and, by cascade, every award of it.
func (r *BadgeRepository) DeleteBadge(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM badges WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func scanBadge(row rowScanner) (persistence.Badge, error) {
	var (
		badge                persistence.Badge
		createdAt, updatedAt string
	)
	if err := row.Scan(&badge.ID, &badge.Title, &badge.Description, &badge.ImageURL, &createdAt, &updatedAt); err != nil {
		return persistence.Badge{}, err
	}

	var err error
	if badge.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Badge{}, err
	}
	if badge.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Badge{}, err
	}
	return badge, nil
}
