package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

const (
	maxBadgeTitleLength       = 80
	maxBadgeDescriptionLength = 500
)

// BadgeStore captures the persistence operations needed by the badge service.
type BadgeStore interface {
	CreateBadge(ctx context.Context, badge persistence.Badge) error
	UpdateBadge(ctx context.Context, badge persistence.Badge) error
	GetBadge(ctx context.Context, id string) (persistence.Badge, error)
	ListBadges(ctx context.Context) ([]persistence.Badge, error)
	DeleteBadge(ctx context.Context, id string) error
}

// BadgeService manages the badge catalog. Reads are public, writes are administrator only.
type BadgeService struct {
	badges      BadgeStore
	idGenerator func() string
	now         func() time.Time
	events      changefeed.Publisher
	logger      *slog.Logger
}

// NewBadgeService constructs a badge service with the provided dependencies.
func NewBadgeService(badges BadgeStore, idGenerator func() string, now func() time.Time) *BadgeService {
	return NewBadgeServiceWithLogger(badges, idGenerator, now, nil)
}

// NewBadgeServiceWithLogger constructs a badge service with a specified logger.
func NewBadgeServiceWithLogger(badges BadgeStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BadgeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BadgeService{badges: badges, idGenerator: idGenerator, now: now, events: changefeed.Discard, logger: defaultLogger(logger)}
}

// WithPublisher routes catalog change events to p.
func (s *BadgeService) WithPublisher(p changefeed.Publisher) *BadgeService {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *BadgeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BadgeService", operation, attrs...)
}

// CreateBadge validates input and adds a badge to the catalog.
func (s *BadgeService) CreateBadge(ctx context.Context, params CreateBadgeParams) (badge Badge, err error) {
	if s == nil {
		err = fmt.Errorf("BadgeService is nil")
		return
	}
	if s.badges == nil {
		err = fmt.Errorf("badge store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBadge", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create badge", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("badge_id", badge.ID).InfoContext(ctx, "badge created")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}

	input := BadgeInput{
		Title:       strings.TrimSpace(params.Input.Title),
		Description: strings.TrimSpace(params.Input.Description),
		ImageURL:    strings.TrimSpace(params.Input.ImageURL),
	}
	if vErr := validateBadgeInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now().UTC()
	record := persistence.Badge{
		ID:          s.idGenerator(),
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.badges.CreateBadge(ctx, record); err != nil {
		err = mapRepoError("CreateBadge", err)
		return
	}

	badge = toBadge(record)
	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableBadges, Action: changefeed.ActionInsert, ID: badge.ID, At: now})
	return
}

// UpdateBadge edits the fields present in params.
func (s *BadgeService) UpdateBadge(ctx context.Context, params UpdateBadgeParams) (badge Badge, err error) {
	if s == nil {
		err = fmt.Errorf("BadgeService is nil")
		return
	}
	if s.badges == nil {
		err = fmt.Errorf("badge store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBadge",
		"principal_id", params.Principal.UserID,
		"badge_id", params.BadgeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update badge", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "badge updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}

	var record persistence.Badge
	record, err = s.badges.GetBadge(ctx, params.BadgeID)
	if err != nil {
		err = mapRepoError("UpdateBadge", err)
		return
	}

	input := BadgeInput{Title: record.Title, Description: record.Description, ImageURL: record.ImageURL}
	if params.Title != nil {
		input.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		input.Description = strings.TrimSpace(*params.Description)
	}
	if params.ImageURL != nil {
		input.ImageURL = strings.TrimSpace(*params.ImageURL)
	}
	if vErr := validateBadgeInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	record.Title = input.Title
	record.Description = input.Description
	record.ImageURL = input.ImageURL
	record.UpdatedAt = s.now().UTC()

	if err = s.badges.UpdateBadge(ctx, record); err != nil {
		err = mapRepoError("UpdateBadge", err)
		return
	}

	badge = toBadge(record)
	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableBadges, Action: changefeed.ActionUpdate, ID: badge.ID, At: record.UpdatedAt})
	return
}

// DeleteBadge removes a badge and, through the store's cascade, every grant of it.
func (s *BadgeService) DeleteBadge(ctx context.Context, principal Principal, badgeID string) (err error) {
	if s == nil {
		return fmt.Errorf("BadgeService is nil")
	}
	if s.badges == nil {
		return fmt.Errorf("badge store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteBadge", "principal_id", principal.UserID, "badge_id", badgeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete badge", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "badge deleted")
	}()

	if err = requireAdmin(principal); err != nil {
		return
	}
	if err = s.badges.DeleteBadge(ctx, badgeID); err != nil {
		err = mapRepoError("DeleteBadge", err)
		return
	}

	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableBadges, Action: changefeed.ActionDelete, ID: badgeID, At: s.now().UTC()})
	return nil
}

// GetBadge returns a single badge.
func (s *BadgeService) GetBadge(ctx context.Context, badgeID string) (Badge, error) {
	if s == nil {
		return Badge{}, fmt.Errorf("BadgeService is nil")
	}
	if s.badges == nil {
		return Badge{}, fmt.Errorf("badge store not configured")
	}
	record, err := s.badges.GetBadge(ctx, badgeID)
	if err != nil {
		return Badge{}, mapRepoError("GetBadge", err)
	}
	return toBadge(record), nil
}

// ListBadges returns the public gallery, newest first.
func (s *BadgeService) ListBadges(ctx context.Context) ([]Badge, error) {
	if s == nil {
		return nil, fmt.Errorf("BadgeService is nil")
	}
	if s.badges == nil {
		return nil, nil
	}

	records, err := s.badges.ListBadges(ctx)
	if err != nil {
		return nil, mapRepoError("ListBadges", err)
	}
	out := make([]Badge, 0, len(records))
	for _, r := range records {
		out = append(out, toBadge(r))
	}
	return out, nil
}

func requireAdmin(principal Principal) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func validateBadgeInput(input BadgeInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Title == "" {
		vErr.Add("title", "title is required")
	} else if utf8.RuneCountInString(input.Title) > maxBadgeTitleLength {
		vErr.Add("title", fmt.Sprintf("title must have at most %d characters", maxBadgeTitleLength))
	}
	if utf8.RuneCountInString(input.Description) > maxBadgeDescriptionLength {
		vErr.Add("description", fmt.Sprintf("description must have at most %d characters", maxBadgeDescriptionLength))
	}
	if input.ImageURL != "" && !isHTTPURL(input.ImageURL) {
		vErr.Add("image_url", "image_url must be an http or https URL")
	}
	return vErr
}
