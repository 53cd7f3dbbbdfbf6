package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/persistence"
)

// SparkRepository implements persistence.SparkRepository using SQLite
type SparkRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSparkRepository creates a new SQLite Spark Moment repository
func NewSparkRepository(pool *ConnectionPool) *SparkRepository {
	return &SparkRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CountSparkMomentsByDate returns how many moments are booked on day.
func (r *SparkRepository) CountSparkMomentsByDate(ctx context.Context, day booking.Day) (int, error) {
	var count int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM spark_moments WHERE date = ?`, day.String()).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// CountSparkMomentsBetween returns per-date counts for dates in [from, until].
func (r *SparkRepository) CountSparkMomentsBetween(ctx context.Context, from, until booking.Day) (map[string]int, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT date, COUNT(*)
		FROM spark_moments
		WHERE date BETWEEN ? AND ?
		GROUP BY date
	`, from.String(), until.String())
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			date  string
			count int
		)
		if err := rows.Scan(&date, &count); err != nil {
			return nil, fmt.Errorf("failed to scan spark count: %w", err)
		}
		counts[date] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return counts, nil
}

// CreateSparkMomentWithinCapacity inserts moment only while fewer than capacity
// rows share its date. The count and the insert are one statement, and SQLite
// takes the write lock before evaluating it, so concurrent bookers cannot both
// fill the last slot.
func (r *SparkRepository) CreateSparkMomentWithinCapacity(ctx context.Context, moment persistence.SparkMoment, capacity int) error {
	if moment.ID == "" || moment.UserID == "" || moment.Date.IsZero() {
		return persistence.ErrConstraintViolation
	}
	if moment.CreatedAt.IsZero() {
		moment.CreatedAt = time.Now().UTC()
	}

	date := moment.Date.String()
	result, err := r.helper.Exec(ctx, `
		INSERT INTO spark_moments (id, date, description, user_id, created_at)
		SELECT ?, ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM spark_moments WHERE date = ?) < ?
	`, moment.ID, date, moment.Description, moment.UserID, formatTime(moment.CreatedAt), date, capacity)
	if err != nil {
		return r.mapper.MapError(err)
	}

	if err := requireRowsAffected(result); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ErrCapacityExceeded
		}
		return err
	}
	return nil
}

// GetSparkMoment retrieves a moment by ID.
func (r *SparkRepository) GetSparkMoment(ctx context.Context, id string) (persistence.SparkMoment, error) {
	if id == "" {
		return persistence.SparkMoment{}, persistence.ErrNotFound
	}

	var (
		moment          persistence.SparkMoment
		date, createdAt string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT id, date, description, user_id, created_at
		FROM spark_moments
		WHERE id = ?
	`, id).Scan(&moment.ID, &date, &moment.Description, &moment.UserID, &createdAt)
	if err != nil {
		return persistence.SparkMoment{}, r.mapper.MapError(err)
	}

	if moment.Date, err = booking.ParseDay(date); err != nil {
		return persistence.SparkMoment{}, err
	}
	if moment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.SparkMoment{}, err
	}
	return moment, nil
}

// DeleteSparkMomentOwnedBy deletes the moment only when ownerID owns it.
// It returns ErrNotFound when no moment with that id and owner exists.
func (r *SparkRepository) DeleteSparkMomentOwnedBy(ctx context.Context, id, ownerID string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM spark_moments WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListSparkMoments returns every moment with its owner's public profile,
// ordered by date, then creation time, then ID.
func (r *SparkRepository) ListSparkMoments(ctx context.Context) ([]persistence.SparkMomentListing, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT s.id, s.date, s.description, s.user_id, s.created_at, u.name, u.avatar_url
		FROM spark_moments s
		LEFT JOIN users u ON u.id = s.user_id
		ORDER BY s.date ASC, s.created_at ASC, s.id ASC
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var listings []persistence.SparkMomentListing
	for rows.Next() {
		var (
			listing         persistence.SparkMomentListing
			date, createdAt string
			name, avatarURL sql.NullString
		)
		if err := rows.Scan(
			&listing.ID,
			&date,
			&listing.Description,
			&listing.UserID,
			&createdAt,
			&name,
			&avatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spark moment: %w", err)
		}
		if listing.Date, err = booking.ParseDay(date); err != nil {
			return nil, err
		}
		if listing.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		listing.OwnerName = stringPtr(name)
		listing.OwnerAvatarURL = stringPtr(avatarURL)
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return listings, nil
}
