package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/persistence"
)

// CountSparkMomentsByDate returns how many moments are booked on day.
func (s *Storage) CountSparkMomentsByDate(ctx context.Context, day booking.Day) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM spark_moments WHERE date = $1`, day.Time()).Scan(&count)
	return count, mapError(err)
}

// CountSparkMomentsBetween returns per-date counts for dates in [from, until].
func (s *Storage) CountSparkMomentsBetween(ctx context.Context, from, until booking.Day) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), COUNT(*)
		FROM spark_moments
		WHERE date BETWEEN $1 AND $2
		GROUP BY date
	`, from.Time(), until.Time())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			date  string
			count int
		)
		if err := rows.Scan(&date, &count); err != nil {
			return nil, mapError(err)
		}
		counts[date] = count
	}
	return counts, mapError(rows.Err())
}

// CreateSparkMomentWithinCapacity takes a transaction-scoped advisory lock
// keyed on the date, so bookers for the same day queue behind each other, and
// inserts only while fewer than capacity rows exist.
func (s *Storage) CreateSparkMomentWithinCapacity(ctx context.Context, moment persistence.SparkMoment, capacity int) error {
	if moment.ID == "" || moment.UserID == "" || moment.Date.IsZero() {
		return persistence.ErrConstraintViolation
	}
	if moment.CreatedAt.IsZero() {
		moment.CreatedAt = time.Now().UTC()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('spark_moments:' || $1::text))`, moment.Date.String()); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO spark_moments (id, date, description, user_id, created_at)
			SELECT $1::text, $2::date, $3::text, $4::text, $5::timestamptz
			WHERE (SELECT COUNT(*) FROM spark_moments WHERE date = $2::date) < $6::int
		`, moment.ID, moment.Date.Time(), moment.Description, moment.UserID, moment.CreatedAt, capacity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return persistence.ErrCapacityExceeded
		}
		return nil
	})
	if errors.Is(err, persistence.ErrCapacityExceeded) {
		return err
	}
	return mapError(err)
}

// GetSparkMoment retrieves a moment by ID.
func (s *Storage) GetSparkMoment(ctx context.Context, id string) (persistence.SparkMoment, error) {
	var (
		m    persistence.SparkMoment
		date time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, date, description, user_id, created_at FROM spark_moments WHERE id=$1
	`, id).Scan(&m.ID, &date, &m.Description, &m.UserID, &m.CreatedAt)
	if err != nil {
		return persistence.SparkMoment{}, mapError(err)
	}
	m.Date = booking.DayFromLocal(date)
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

// DeleteSparkMomentOwnedBy deletes the moment only when ownerID owns it and
// reports ErrNotFound otherwise.
func (s *Storage) DeleteSparkMomentOwnedBy(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM spark_moments WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListSparkMoments returns every moment joined with its owner's public profile.
func (s *Storage) ListSparkMoments(ctx context.Context) ([]persistence.SparkMomentListing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.date, s.description, s.user_id, s.created_at, u.name, u.avatar_url
		FROM spark_moments s
		LEFT JOIN users u ON u.id = s.user_id
		ORDER BY s.date ASC, s.created_at ASC, s.id ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	listings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (persistence.SparkMomentListing, error) {
		var (
			l    persistence.SparkMomentListing
			date time.Time
		)
		if err := row.Scan(&l.ID, &date, &l.Description, &l.UserID, &l.CreatedAt, &l.OwnerName, &l.OwnerAvatarURL); err != nil {
			return persistence.SparkMomentListing{}, err
		}
		l.Date = booking.DayFromLocal(date)
		l.CreatedAt = l.CreatedAt.UTC()
		return l, nil
	})
	return listings, mapError(err)
}
