package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/sparkboard/internal/persistence"
)

// AwardRepository implements persistence.AwardRepository using SQLite
type AwardRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAwardRepository creates a new SQLite award repository
func NewAwardRepository(pool *ConnectionPool) *AwardRepository {
	return &AwardRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAward grants a badge. A second grant of the same badge returns ErrDuplicate.
func (r *AwardRepository) CreateAward(ctx context.Context, award persistence.Award) error {
	if award.ID == "" || award.UserID == "" || award.BadgeID == "" {
		return persistence.ErrConstraintViolation
	}
	if award.CreatedAt.IsZero() {
		award.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id, created_at)
		VALUES (?, ?, ?, ?)
	`, award.ID, award.UserID, award.BadgeID, formatTime(award.CreatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// DeleteAward revokes the badge from the user.
func (r *AwardRepository) DeleteAward(ctx context.Context, userID, badgeID string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM user_badges WHERE user_id = ? AND badge_id = ?`, userID, badgeID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListAwards returns every grant, oldest first.
func (r *AwardRepository) ListAwards(ctx context.Context) ([]persistence.Award, error) {
	rows, err := r.helper.Query(ctx, `SELECT id, user_id, badge_id, created_at FROM user_badges ORDER BY created_at, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var awards []persistence.Award
	for rows.Next() {
		var (
			award     persistence.Award
			createdAt string
		)
		if err := rows.Scan(&award.ID, &award.UserID, &award.BadgeID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		if award.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		awards = append(awards, award)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return awards, nil
}

// ListAwardsForUser returns the user's badges, most recently awarded first.
func (r *AwardRepository) ListAwardsForUser(ctx context.Context, userID string) ([]persistence.AwardedBadge, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT ub.id, ub.created_at, b.id, b.title, b.description, b.image_url, b.created_at, b.updated_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = ?
		ORDER BY ub.created_at DESC, ub.id
	`, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var awarded []persistence.AwardedBadge
	for rows.Next() {
		var (
			item                            persistence.AwardedBadge
			awardedAt, createdAt, updatedAt string
		)
		if err := rows.Scan(
			&item.AwardID,
			&awardedAt,
			&item.Badge.ID,
			&item.Badge.Title,
			&item.Badge.Description,
			&item.Badge.ImageURL,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan awarded badge: %w", err)
		}
		if item.AwardedAt, err = parseTime(awardedAt); err != nil {
			return nil, err
		}
		if item.Badge.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if item.Badge.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		awarded = append(awarded, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return awarded, nil
}
