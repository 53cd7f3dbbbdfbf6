package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/sparkboard/internal/persistence"
)

// CreateAward grants a badge; a repeated grant returns ErrDuplicate.
func (s *Storage) CreateAward(ctx context.Context, award persistence.Award) error {
	if award.ID == "" || award.UserID == "" || award.BadgeID == "" {
		return persistence.ErrConstraintViolation
	}
	if award.CreatedAt.IsZero() {
		award.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id, created_at) VALUES ($1,$2,$3,$4)
	`, award.ID, award.UserID, award.BadgeID, award.CreatedAt)
	return mapError(err)
}

// DeleteAward revokes a badge from a user.
func (s *Storage) DeleteAward(ctx context.Context, userID, badgeID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_badges WHERE user_id=$1 AND badge_id=$2`, userID, badgeID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

// ListAwards returns every grant, oldest first.
func (s *Storage) ListAwards(ctx context.Context) ([]persistence.Award, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, badge_id, created_at FROM user_badges ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	awards, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.Award, error) {
		var a persistence.Award
		err := row.Scan(&a.ID, &a.UserID, &a.BadgeID, &a.CreatedAt)
		a.CreatedAt = a.CreatedAt.UTC()
		return a, err
	})
	return awards, mapError(err)
}

// ListAwardsForUser returns the user's badges, most recently awarded first.
func (s *Storage) ListAwardsForUser(ctx context.Context, userID string) ([]persistence.AwardedBadge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ub.id, ub.created_at, b.id, b.title, b.description, b.image_url, b.created_at, b.updated_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.created_at DESC, ub.id
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	awarded, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.AwardedBadge, error) {
		var item persistence.AwardedBadge
		err := row.Scan(
			&item.AwardID, &item.AwardedAt,
			&item.Badge.ID, &item.Badge.Title, &item.Badge.Description, &item.Badge.ImageURL,
			&item.Badge.CreatedAt, &item.Badge.UpdatedAt,
		)
		item.AwardedAt = item.AwardedAt.UTC()
		item.Badge.CreatedAt = item.Badge.CreatedAt.UTC()
		item.Badge.UpdatedAt = item.Badge.UpdatedAt.UTC()
		return item, err
	})
	return awarded, mapError(err)
}
