package persistence

import (
	"time"

	"github.com/example/sparkboard/internal/booking"
)

// Role values stored on user accounts.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents a bootcamp member account.
type User struct {
	ID           string
	Email        string
	Name         *string
	Bio          *string
	AvatarURL    *string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Badge represents an achievement in the public gallery.
type Badge struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Award links a user to a badge they hold. The (UserID, BadgeID) pair is unique.
type Award struct {
	ID        string
	UserID    string
	BadgeID   string
	CreatedAt time.Time
}

// AwardedBadge is an award joined with the badge it grants.
type AwardedBadge struct {
	AwardID   string
	Badge     Badge
	AwardedAt time.Time
}

// SparkMoment is a booked lightning-talk slot. Rows are never updated.
type SparkMoment struct {
	ID          string
	Date        booking.Day
	Description string
	UserID      string
	CreatedAt   time.Time
}

// SparkMomentListing is a moment joined with its owner's public profile.
type SparkMomentListing struct {
	SparkMoment
	OwnerName      *string
	OwnerAvatarURL *string
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
