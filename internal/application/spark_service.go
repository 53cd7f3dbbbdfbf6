package application

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

// DefaultCalendarWeeks is the calendar window used when the caller does not pick one.
const DefaultCalendarWeeks = 4

// SparkStore captures the persistence operations needed by the Spark service.
type SparkStore interface {
	CountSparkMomentsByDate(ctx context.Context, day booking.Day) (int, error)
	CountSparkMomentsBetween(ctx context.Context, from, until booking.Day) (map[string]int, error)
	CreateSparkMomentWithinCapacity(ctx context.Context, moment persistence.SparkMoment, capacity int) error
	GetSparkMoment(ctx context.Context, id string) (persistence.SparkMoment, error)
	DeleteSparkMomentOwnedBy(ctx context.Context, id, ownerID string) error
	ListSparkMoments(ctx context.Context) ([]persistence.SparkMomentListing, error)
}

// SparkService books, cancels and lists Spark Moments.
type SparkService struct {
	sparks      SparkStore
	idGenerator func() string
	now         func() time.Time
	events      changefeed.Publisher
	logger      *slog.Logger
}

// NewSparkService constructs a Spark service with the provided dependencies.
func NewSparkService(sparks SparkStore, idGenerator func() string, now func() time.Time) *SparkService {
	return NewSparkServiceWithLogger(sparks, idGenerator, now, nil)
}

// NewSparkServiceWithLogger constructs a Spark service with a specified logger.
func NewSparkServiceWithLogger(sparks SparkStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SparkService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SparkService{sparks: sparks, idGenerator: idGenerator, now: now, events: changefeed.Discard, logger: defaultLogger(logger)}
}

// WithPublisher routes booking events to p.
func (s *SparkService) WithPublisher(p changefeed.Publisher) *SparkService {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *SparkService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SparkService", operation, attrs...)
}

// BookSpark admits or rejects a booking. A rejection is returned as a
// *booking.RejectionError and nothing is written.
func (s *SparkService) BookSpark(ctx context.Context, params BookSparkParams) (moment SparkMoment, err error) {
	if s == nil {
		err = fmt.Errorf("SparkService is nil")
		return
	}
	if s.sparks == nil {
		err = fmt.Errorf("spark store not configured")
		return
	}

	logger := s.loggerWith(ctx, "BookSpark",
		"principal_id", params.Principal.UserID,
		"date", params.Date.String(),
	)
	defer func() {
		if err != nil {
			var rejection *booking.RejectionError
			if errors.As(err, &rejection) {
				logger.InfoContext(ctx, "booking rejected", "error_kind", ErrorKind(err))
				return
			}
			logger.ErrorContext(ctx, "failed to book spark moment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("spark_id", moment.ID).InfoContext(ctx, "spark moment booked")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	// Rules that need no count are checked first so a bad request never touches the store.
	if decision := booking.Evaluate(params.Date, params.Description, 0); !decision.Admitted {
		err = decision.Err()
		return
	}

	var existing int
	existing, err = s.sparks.CountSparkMomentsByDate(ctx, params.Date)
	if err != nil {
		err = persistenceError("BookSpark", err)
		return
	}
	if decision := booking.Evaluate(params.Date, params.Description, existing); !decision.Admitted {
		err = decision.Err()
		return
	}

	record := persistence.SparkMoment{
		ID:          s.idGenerator(),
		Date:        params.Date,
		Description: strings.TrimSpace(params.Description),
		UserID:      params.Principal.UserID,
		CreatedAt:   s.now().UTC(),
	}
	if err = s.sparks.CreateSparkMomentWithinCapacity(ctx, record, booking.Capacity); err != nil {
		if errors.Is(err, persistence.ErrCapacityExceeded) {
			err = booking.Reject(booking.ReasonCapacityExceeded)
			return
		}
		err = persistenceError("BookSpark", err)
		return
	}

	moment = toSparkMoment(record)
	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableSparkMoments, Action: changefeed.ActionInsert, ID: moment.ID, At: moment.CreatedAt})
	return
}

// DeleteSpark cancels a booking owned by the principal.
func (s *SparkService) DeleteSpark(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SparkService is nil")
	}
	if s.sparks == nil {
		return fmt.Errorf("spark store not configured")
	}

	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "DeleteSpark", "principal_id", principal.UserID, "spark_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete spark moment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "spark moment deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthenticated
		return
	}
	if id == "" {
		vErr := &ValidationError{}
		vErr.Add("id", "id is required")
		err = vErr
		return
	}

	moment, err := s.sparks.GetSparkMoment(ctx, id)
	if err != nil {
		err = mapRepoError("DeleteSpark", err)
		return
	}
	if moment.UserID != principal.UserID {
		err = ErrForbidden
		return
	}
	logger = logger.With("date", moment.Date.String())

	if err = s.sparks.DeleteSparkMomentOwnedBy(ctx, id, principal.UserID); err != nil {
		err = mapRepoError("DeleteSpark", err)
		return
	}

	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableSparkMoments, Action: changefeed.ActionDelete, ID: id, At: s.now().UTC()})
	return nil
}

// ListSparks returns every booking joined with its owner's public profile,
// ordered by date, then creation time, then id. Each range over the sequence
// queries the store again.
func (s *SparkService) ListSparks(ctx context.Context) iter.Seq2[SparkListing, error] {
	return func(yield func(SparkListing, error) bool) {
		if s == nil || s.sparks == nil {
			yield(SparkListing{}, fmt.Errorf("spark store not configured"))
			return
		}
		rows, err := s.sparks.ListSparkMoments(ctx)
		if err != nil {
			yield(SparkListing{}, persistenceError("ListSparks", err))
			return
		}
		for _, row := range rows {
			if !yield(toSparkListing(row), nil) {
				return
			}
		}
	}
}

// CollectSparks drains seq into a slice, stopping at the first error.
func CollectSparks(seq iter.Seq2[SparkListing, error]) ([]SparkListing, error) {
	out := []SparkListing{}
	for listing, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}

// Calendar reports the occupancy of every session day in the requested window.
// A zero From starts the window today.
func (s *SparkService) Calendar(ctx context.Context, params CalendarParams) ([]CalendarDay, error) {
	if s == nil {
		return nil, fmt.Errorf("SparkService is nil")
	}
	if s.sparks == nil {
		return nil, fmt.Errorf("spark store not configured")
	}

	weeks := params.Weeks
	if weeks == 0 {
		weeks = DefaultCalendarWeeks
	}
	if weeks < 0 || weeks*7 > booking.MaxWindowDays {
		vErr := &ValidationError{}
		vErr.Add("weeks", fmt.Sprintf("weeks must be between 1 and %d", booking.MaxWindowDays/7))
		return nil, vErr
	}

	from := params.From
	if from.IsZero() {
		from = booking.DayFromLocal(s.now())
	}
	until := from.AddDays(weeks*7 - 1)

	counts, err := s.sparks.CountSparkMomentsBetween(ctx, from, until)
	if err != nil {
		return nil, persistenceError("Calendar", err)
	}

	slots, err := booking.Slots(from, until, counts)
	if err != nil {
		return nil, err
	}

	out := make([]CalendarDay, 0, len(slots))
	for _, slot := range slots {
		out = append(out, CalendarDay{
			Date:      slot.Day,
			Weekday:   booking.Weekday(slot.Day),
			Booked:    slot.Booked,
			Remaining: slot.Remaining,
		})
	}
	return out, nil
}
