package http

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/example/sparkboard/internal/application"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sessionValidatorStub struct {
	principals map[string]application.Principal
	err        error
	calls      int
}

func (s *sessionValidatorStub) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	s.calls++
	if s.err != nil {
		return application.Principal{}, s.err
	}
	principal, ok := s.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthenticated
	}
	return principal, nil
}

type sparkServiceStub struct {
	bookFn     func(context.Context, application.BookSparkParams) (application.SparkMoment, error)
	deleteFn   func(context.Context, application.Principal, string) error
	listings   []application.SparkListing
	listErr    error
	calendarFn func(context.Context, application.CalendarParams) ([]application.CalendarDay, error)

	lastBook application.BookSparkParams
}

func (s *sparkServiceStub) BookSpark(ctx context.Context, params application.BookSparkParams) (application.SparkMoment, error) {
	s.lastBook = params
	if s.bookFn == nil {
		return application.SparkMoment{}, nil
	}
	return s.bookFn(ctx, params)
}

func (s *sparkServiceStub) DeleteSpark(ctx context.Context, principal application.Principal, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, principal, id)
}

func (s *sparkServiceStub) ListSparks(context.Context) iter.Seq2[application.SparkListing, error] {
	return func(yield func(application.SparkListing, error) bool) {
		if s.listErr != nil {
			yield(application.SparkListing{}, s.listErr)
			return
		}
		for _, l := range s.listings {
			if !yield(l, nil) {
				return
			}
		}
	}
}

func (s *sparkServiceStub) Calendar(ctx context.Context, params application.CalendarParams) ([]application.CalendarDay, error) {
	if s.calendarFn == nil {
		return nil, nil
	}
	return s.calendarFn(ctx, params)
}

type authServiceStub struct {
	registerFn     func(context.Context, application.RegisterParams) (application.User, error)
	authenticateFn func(context.Context, application.AuthenticateParams) (application.AuthenticateResult, error)
	revoked        []string
}

func (s *authServiceStub) Register(ctx context.Context, params application.RegisterParams) (application.User, error) {
	return s.registerFn(ctx, params)
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.authenticateFn(ctx, params)
}

func (s *authServiceStub) RevokeSession(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return nil
}

type badgeServiceStub struct {
	badges  []application.Badge
	created application.CreateBadgeParams
	err     error
}

func (s *badgeServiceStub) CreateBadge(_ context.Context, params application.CreateBadgeParams) (application.Badge, error) {
	s.created = params
	if s.err != nil {
		return application.Badge{}, s.err
	}
	return application.Badge{ID: "badge-1", Title: params.Input.Title}, nil
}

func (s *badgeServiceStub) UpdateBadge(_ context.Context, params application.UpdateBadgeParams) (application.Badge, error) {
	if s.err != nil {
		return application.Badge{}, s.err
	}
	return application.Badge{ID: params.BadgeID}, nil
}

func (s *badgeServiceStub) DeleteBadge(context.Context, application.Principal, string) error {
	return s.err
}

func (s *badgeServiceStub) ListBadges(context.Context) ([]application.Badge, error) {
	return s.badges, s.err
}

type awardServiceStub struct {
	assignErr error
	revoked   []application.AwardParams
}

func (s *awardServiceStub) AssignBadge(_ context.Context, params application.AwardParams) (application.Award, error) {
	if s.assignErr != nil {
		return application.Award{}, s.assignErr
	}
	return application.Award{ID: "award-1", UserID: params.UserID, BadgeID: params.BadgeID}, nil
}

func (s *awardServiceStub) RevokeBadge(_ context.Context, params application.AwardParams) error {
	s.revoked = append(s.revoked, params)
	return nil
}
