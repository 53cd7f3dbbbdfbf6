package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

// AwardStore captures the persistence operations needed to grant and revoke badges.
type AwardStore interface {
	CreateAward(ctx context.Context, award persistence.Award) error
	DeleteAward(ctx context.Context, userID, badgeID string) error
}

// AwardService lets administrators grant and revoke badges.
type AwardService struct {
	awards      AwardStore
	users       UserStore
	badges      BadgeStore
	idGenerator func() string
	now         func() time.Time
	events      changefeed.Publisher
	logger      *slog.Logger
}

// NewAwardService constructs an award service with the provided dependencies.
func NewAwardService(awards AwardStore, users UserStore, badges BadgeStore, idGenerator func() string, now func() time.Time) *AwardService {
	return NewAwardServiceWithLogger(awards, users, badges, idGenerator, now, nil)
}

// NewAwardServiceWithLogger constructs an award service with a specified logger.
func NewAwardServiceWithLogger(awards AwardStore, users UserStore, badges BadgeStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AwardService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AwardService{
		awards:      awards,
		users:       users,
		badges:      badges,
		idGenerator: idGenerator,
		now:         now,
		events:      changefeed.Discard,
		logger:      defaultLogger(logger),
	}
}

// WithPublisher routes grant and revoke events to p.
func (s *AwardService) WithPublisher(p changefeed.Publisher) *AwardService {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *AwardService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AwardService", operation, attrs...)
}

// AssignBadge grants a badge to a user. Granting a badge the user already holds
// yields ErrAlreadyExists.
func (s *AwardService) AssignBadge(ctx context.Context, params AwardParams) (award Award, err error) {
	if s == nil {
		err = fmt.Errorf("AwardService is nil")
		return
	}
	if s.awards == nil {
		err = fmt.Errorf("award store not configured")
		return
	}

	userID := strings.TrimSpace(params.UserID)
	badgeID := strings.TrimSpace(params.BadgeID)
	logger := s.loggerWith(ctx, "AssignBadge",
		"principal_id", params.Principal.UserID,
		"user_id", userID,
		"badge_id", badgeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign badge", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("award_id", award.ID).InfoContext(ctx, "badge assigned")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if vErr := validateAwardTarget(userID, badgeID); vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureTargetsExist(ctx, userID, badgeID); err != nil {
		return
	}

	now := s.now().UTC()
	record := persistence.Award{ID: s.idGenerator(), UserID: userID, BadgeID: badgeID, CreatedAt: now}
	if err = s.awards.CreateAward(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrConstraintViolation) {
			err = ErrNotFound
			return
		}
		err = mapRepoError("AssignBadge", err)
		return
	}

	award = Award{ID: record.ID, UserID: record.UserID, BadgeID: record.BadgeID, CreatedAt: record.CreatedAt}
	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableUserBadges, Action: changefeed.ActionInsert, ID: award.ID, At: now})
	return
}

// RevokeBadge removes a grant. Revoking a grant that does not exist succeeds.
func (s *AwardService) RevokeBadge(ctx context.Context, params AwardParams) (err error) {
	if s == nil {
		return fmt.Errorf("AwardService is nil")
	}
	if s.awards == nil {
		return fmt.Errorf("award store not configured")
	}

	userID := strings.TrimSpace(params.UserID)
	badgeID := strings.TrimSpace(params.BadgeID)
	logger := s.loggerWith(ctx, "RevokeBadge",
		"principal_id", params.Principal.UserID,
		"user_id", userID,
		"badge_id", badgeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to revoke badge", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "badge revoked")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}
	if vErr := validateAwardTarget(userID, badgeID); vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.awards.DeleteAward(ctx, userID, badgeID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = nil
			return
		}
		err = mapRepoError("RevokeBadge", err)
		return
	}

	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableUserBadges, Action: changefeed.ActionDelete, ID: userID + ":" + badgeID, At: s.now().UTC()})
	return nil
}

func (s *AwardService) ensureTargetsExist(ctx context.Context, userID, badgeID string) error {
	if s.users != nil {
		if _, err := s.users.GetUser(ctx, userID); err != nil {
			return mapRepoError("AssignBadge", err)
		}
	}
	if s.badges != nil {
		if _, err := s.badges.GetBadge(ctx, badgeID); err != nil {
			return mapRepoError("AssignBadge", err)
		}
	}
	return nil
}

func validateAwardTarget(userID, badgeID string) *ValidationError {
	vErr := &ValidationError{}
	if userID == "" {
		vErr.Add("user_id", "user_id is required")
	}
	if badgeID == "" {
		vErr.Add("badge_id", "badge_id is required")
	}
	return vErr
}
