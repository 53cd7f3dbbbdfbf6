package application

import (
	"strings"
	"time"

	"github.com/example/sparkboard/internal/booking"
)

// Account roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Principal represents the authenticated user invoking a service method.
// The zero value is an anonymous caller.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Authenticated reports whether the principal carries a user identity.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// User represents a bootcamp member account exposed by the application services.
type User struct {
	ID        string
	Email     string
	Name      *string
	Bio       *string
	AvatarURL *string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name when set, otherwise the local part of the email.
func (u User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// Profile is a user together with the badges they hold, newest award first.
type Profile struct {
	User   User
	Badges []AwardedBadge
}

// UpdateProfileParams carries the editable profile fields. Nil fields are left unchanged;
// a pointer to an empty string clears the field.
type UpdateProfileParams struct {
	Principal Principal
	Name      *string
	Bio       *string
	AvatarURL *string
}

// BadgeInput captures caller provided badge fields.
type BadgeInput struct {
	Title       string
	Description string
	ImageURL    string
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

// CreateBadgeParams wraps the data required to create a badge.
type CreateBadgeParams struct {
	Principal Principal
	Input     BadgeInput
}

// UpdateBadgeParams wraps the data required to edit a badge. Nil fields are left unchanged.
type UpdateBadgeParams struct {
	Principal   Principal
	BadgeID     string
	Title       *string
	Description *string
	ImageURL    *string
}

// Award records that a user holds a badge.
type Award struct {
	ID        string
	UserID    string
	BadgeID   string
	CreatedAt time.Time
}

// AwardedBadge is a badge as held by a particular user.
type AwardedBadge struct {
	AwardID   string
	Badge     Badge
	AwardedAt time.Time
}

// AwardParams identifies a (user, badge) pair for grant and revoke.
type AwardParams struct {
	Principal Principal
	UserID    string
	BadgeID   string
}

// SparkMoment is a booked lightning-talk slot.
type SparkMoment struct {
	ID          string
	Date        booking.Day
	Description string
	UserID      string
	CreatedAt   time.Time
}

// SparkOwner is the public part of the owner's profile shown next to a booking.
type SparkOwner struct {
	Name      *string
	AvatarURL *string
}

// SparkListing is a moment joined with its owner's public profile.
type SparkListing struct {
	SparkMoment
	Owner SparkOwner
}

// BookSparkParams wraps the data required to book a Spark Moment.
type BookSparkParams struct {
	Principal   Principal
	Date        booking.Day
	Description string
}

// CalendarParams selects the window of session days to report.
type CalendarParams struct {
	From  booking.Day
	Weeks int
}

// CalendarDay reports the occupancy of one session day.
type CalendarDay struct {
	Date      booking.Day
	Weekday   int
	Booked    int
	Remaining int
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// RegisterParams captures the data required to open an account.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// BadgeCount is a badge with the number of students holding it.
type BadgeCount struct {
	BadgeID string
	Title   string
	Count   int
}

// StudentCount is a student with the number of badges they hold.
type StudentCount struct {
	UserID string
	Name   string
	Email  string
	Count  int
}

// Dashboard aggregates the administrator analytics view.
type Dashboard struct {
	TotalStudents  int
	TotalBadges    int
	TotalAwards    int
	PopularBadges  []BadgeCount
	RareBadges     []BadgeCount
	TopStudents    []StudentCount
	BottomStudents []StudentCount
	GeneratedAt    time.Time
}
