package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/persistence"
)

var (
	userCounter  uint64
	badgeCounter uint64
	sparkCounter uint64
)

// referenceTime is a Monday, so the next session days are 2024-06-04 and 2024-06-06.
var referenceTime = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Tuesday and Thursday following ReferenceTime, and the Wednesday between them.
var (
	Tuesday   = booking.NewDay(2024, time.June, 4)
	Wednesday = booking.NewDay(2024, time.June, 5)
	Thursday  = booking.NewDay(2024, time.June, 6)
)

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// NewUser returns a deterministic student account with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	name := fmt.Sprintf("Student %03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         &name,
		Role:         persistence.RoleStudent,
		PasswordHash: "hash-" + id,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithEmail overrides the generated email address.
func WithEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithName sets the display name. An empty name clears it.
func WithName(name string) UserOption {
	return func(u *persistence.User) {
		if name == "" {
			u.Name = nil
			return
		}
		u.Name = &name
	}
}

// WithAvatar sets the avatar URL.
func WithAvatar(url string) UserOption {
	return func(u *persistence.User) { u.AvatarURL = &url }
}

// AsAdmin grants the administrator role.
func AsAdmin() UserOption {
	return func(u *persistence.User) { u.Role = persistence.RoleAdmin }
}

// WithPasswordHash overrides the stored password hash.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// BadgeOption configures a generated badge.
type BadgeOption func(*persistence.Badge)

// NewBadge returns a deterministic badge with optional overrides.
func NewBadge(opts ...BadgeOption) persistence.Badge {
	idx := atomic.AddUint64(&badgeCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	badge := persistence.Badge{
		ID:          fmt.Sprintf("badge-%03d", idx),
		Title:       fmt.Sprintf("Badge %03d", idx),
		Description: "Awarded in tests",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&badge)
	}
	return badge
}

// WithBadgeID overrides the generated badge ID.
func WithBadgeID(id string) BadgeOption {
	return func(b *persistence.Badge) { b.ID = id }
}

// WithTitle overrides the generated badge title.
func WithTitle(title string) BadgeOption {
	return func(b *persistence.Badge) { b.Title = title }
}

// NewSparkMoment returns a booking for owner on day.
func NewSparkMoment(owner string, day booking.Day, description string) persistence.SparkMoment {
	idx := atomic.AddUint64(&sparkCounter, 1)
	return persistence.SparkMoment{
		ID:          fmt.Sprintf("spark-%03d", idx),
		Date:        day,
		Description: description,
		UserID:      owner,
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Second),
	}
}

// NewAward links user to badge.
func NewAward(userID, badgeID string) persistence.Award {
	return persistence.Award{
		ID:        userID + ":" + badgeID,
		UserID:    userID,
		BadgeID:   badgeID,
		CreatedAt: referenceTime,
	}
}
