package persistence

import (
	"context"
	"time"

	"github.com/example/sparkboard/internal/booking"
)

// UserFilter narrows user queries. An empty Role matches every account.
type UserFilter struct {
	Role string
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// BadgeRepository exposes CRUD operations for the badge catalog.
type BadgeRepository interface {
	CreateBadge(ctx context.Context, badge Badge) error
	UpdateBadge(ctx context.Context, badge Badge) error
	GetBadge(ctx context.Context, id string) (Badge, error)
	ListBadges(ctx context.Context) ([]Badge, error)
	DeleteBadge(ctx context.Context, id string) error
}

// AwardRepository stores badge grants.
type AwardRepository interface {
	CreateAward(ctx context.Context, award Award) error
	DeleteAward(ctx context.Context, userID, badgeID string) error
	ListAwards(ctx context.Context) ([]Award, error)
	ListAwardsForUser(ctx context.Context, userID string) ([]AwardedBadge, error)
}

// SparkRepository stores Spark Moment bookings.
//
// CreateSparkMomentWithinCapacity must insert the moment only while fewer than
// capacity rows exist for its date, as a single atomic step, and return
// ErrCapacityExceeded otherwise.
type SparkRepository interface {
	CountSparkMomentsByDate(ctx context.Context, day booking.Day) (int, error)
	CountSparkMomentsBetween(ctx context.Context, from, until booking.Day) (map[string]int, error)
	CreateSparkMomentWithinCapacity(ctx context.Context, moment SparkMoment, capacity int) error
	GetSparkMoment(ctx context.Context, id string) (SparkMoment, error)
	DeleteSparkMomentOwnedBy(ctx context.Context, id, ownerID string) error
	ListSparkMoments(ctx context.Context) ([]SparkMomentListing, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
