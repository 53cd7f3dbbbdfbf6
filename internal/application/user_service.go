package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

const (
	maxNameLength = 120
	maxBioLength  = 500
)

// UserStore captures the persistence operations needed by the user service.
type UserStore interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) error
	ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error)
}

// AwardLister returns the badges held by a user.
type AwardLister interface {
	ListAwardsForUser(ctx context.Context, userID string) ([]persistence.AwardedBadge, error)
}

// UserService serves the student directory and profile editing.
type UserService struct {
	users  UserStore
	awards AwardLister
	now    func() time.Time
	events changefeed.Publisher
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserStore, awards AwardLister, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, awards, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserStore, awards AwardLister, now func() time.Time, logger *slog.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, awards: awards, now: now, events: changefeed.Discard, logger: defaultLogger(logger)}
}

// WithPublisher routes profile change events to p.
func (s *UserService) WithPublisher(p changefeed.Publisher) *UserService {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// GetProfile returns the public profile of a user together with their badges.
func (s *UserService) GetProfile(ctx context.Context, userID string) (Profile, error) {
	if s == nil {
		return Profile{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return Profile{}, fmt.Errorf("user store not configured")
	}

	record, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, mapRepoError("GetProfile", err)
	}

	profile := Profile{User: toUser(record), Badges: []AwardedBadge{}}
	if s.awards != nil {
		awarded, err := s.awards.ListAwardsForUser(ctx, userID)
		if err != nil {
			return Profile{}, mapRepoError("GetProfile", err)
		}
		profile.Badges = toAwardedBadges(awarded)
	}
	return profile, nil
}

// GetOwnProfile returns the caller's profile.
func (s *UserService) GetOwnProfile(ctx context.Context, principal Principal) (Profile, error) {
	if !principal.Authenticated() {
		return Profile{}, ErrUnauthenticated
	}
	profile, err := s.GetProfile(ctx, principal.UserID)
	if errors.Is(err, ErrNotFound) {
		// A valid session whose account vanished.
		return Profile{}, ErrUnauthenticated
	}
	return profile, err
}

// UpdateOwnProfile edits the caller's name, bio and avatar URL.
func (s *UserService) UpdateOwnProfile(ctx context.Context, params UpdateProfileParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateOwnProfile", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update profile", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	vErr := validateProfile(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var record persistence.User
	record, err = s.users.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		err = mapRepoError("UpdateOwnProfile", err)
		return
	}

	if params.Name != nil {
		record.Name = normalizeOptionalString(params.Name)
	}
	if params.Bio != nil {
		record.Bio = normalizeOptionalString(params.Bio)
	}
	if params.AvatarURL != nil {
		record.AvatarURL = normalizeOptionalString(params.AvatarURL)
	}
	record.UpdatedAt = s.now().UTC()

	if err = s.users.UpdateUser(ctx, record); err != nil {
		err = mapRepoError("UpdateOwnProfile", err)
		return
	}

	user = toUser(record)
	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableUsers, Action: changefeed.ActionUpdate, ID: user.ID, At: record.UpdatedAt})
	return
}

// ListStudents returns the student directory ordered by name.
func (s *UserService) ListStudents(ctx context.Context) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return nil, nil
	}

	records, err := s.users.ListUsers(ctx, persistence.UserFilter{Role: RoleStudent})
	if err != nil {
		return nil, mapRepoError("ListStudents", err)
	}

	out := make([]User, 0, len(records))
	for _, r := range records {
		out = append(out, toUser(r))
	}
	return out, nil
}

func validateProfile(params UpdateProfileParams) *ValidationError {
	vErr := &ValidationError{}
	if params.Name != nil && utf8.RuneCountInString(*params.Name) > maxNameLength {
		vErr.Add("name", fmt.Sprintf("name must have at most %d characters", maxNameLength))
	}
	if params.Bio != nil && utf8.RuneCountInString(*params.Bio) > maxBioLength {
		vErr.Add("bio", fmt.Sprintf("bio must have at most %d characters", maxBioLength))
	}
	if avatar := normalizeOptionalString(params.AvatarURL); avatar != nil && !isHTTPURL(*avatar) {
		vErr.Add("avatar_url", "avatar_url must be an http or https URL")
	}
	return vErr
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
