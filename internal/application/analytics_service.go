package application

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

const (
	dashboardBadgeLimit   = 5
	dashboardStudentLimit = 10
)

// AnalyticsSource exposes the catalog reads the dashboard aggregates.
type AnalyticsSource interface {
	ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error)
	ListBadges(ctx context.Context) ([]persistence.Badge, error)
	ListAwards(ctx context.Context) ([]persistence.Award, error)
}

// AnalyticsService aggregates badge statistics for administrators.
type AnalyticsService struct {
	source AnalyticsSource
	cache  *dashboardCache
	now    func() time.Time
	logger *slog.Logger
}

// NewAnalyticsService constructs an analytics service. Results are cached for ttl.
func NewAnalyticsService(source AnalyticsSource, ttl time.Duration, now func() time.Time) *AnalyticsService {
	return NewAnalyticsServiceWithLogger(source, ttl, now, nil)
}

// NewAnalyticsServiceWithLogger constructs an analytics service with a specified logger.
func NewAnalyticsServiceWithLogger(source AnalyticsSource, ttl time.Duration, now func() time.Time, logger *slog.Logger) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{source: source, cache: newDashboardCache(ttl, now), now: now, logger: defaultLogger(logger)}
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

// Dashboard returns totals and rankings for the admin view.
func (s *AnalyticsService) Dashboard(ctx context.Context, principal Principal) (dashboard Dashboard, err error) {
	if s == nil {
		err = fmt.Errorf("AnalyticsService is nil")
		return
	}
	if s.source == nil {
		err = fmt.Errorf("analytics source not configured")
		return
	}
	if err = requireAdmin(principal); err != nil {
		return
	}

	cached, gen, ok := s.cache.Get()
	if ok {
		return cached, nil
	}

	logger := s.loggerWith(ctx, "Dashboard", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build dashboard", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "dashboard rebuilt", "total_awards", dashboard.TotalAwards)
	}()

	students, err := s.source.ListUsers(ctx, persistence.UserFilter{Role: RoleStudent})
	if err != nil {
		err = mapRepoError("Dashboard", err)
		return
	}
	badges, err := s.source.ListBadges(ctx)
	if err != nil {
		err = mapRepoError("Dashboard", err)
		return
	}
	awards, err := s.source.ListAwards(ctx)
	if err != nil {
		err = mapRepoError("Dashboard", err)
		return
	}

	dashboard = buildDashboard(students, badges, awards)
	dashboard.GeneratedAt = s.now().UTC()
	if !s.cache.Store(dashboard, gen) {
		logger.DebugContext(ctx, "dashboard invalidated during rebuild; not cached")
	}
	return dashboard, nil
}

// Watch drops the cached dashboard whenever a catalog change arrives on sub.
// It returns when ctx is done or the subscription closes.
func (s *AnalyticsService) Watch(ctx context.Context, sub *changefeed.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			switch event.Table {
			case changefeed.TableBadges, changefeed.TableUserBadges, changefeed.TableUsers:
				s.cache.Invalidate()
			}
		}
	}
}

func buildDashboard(students []persistence.User, badges []persistence.Badge, awards []persistence.Award) Dashboard {
	badgeCounts := make(map[string]int, len(badges))
	for _, b := range badges {
		badgeCounts[b.ID] = 0
	}
	studentCounts := make(map[string]int, len(students))
	for _, u := range students {
		studentCounts[u.ID] = 0
	}
	for _, a := range awards {
		if _, ok := badgeCounts[a.BadgeID]; ok {
			badgeCounts[a.BadgeID]++
		}
		if _, ok := studentCounts[a.UserID]; ok {
			studentCounts[a.UserID]++
		}
	}

	badgeRows := make([]BadgeCount, 0, len(badges))
	for _, b := range badges {
		badgeRows = append(badgeRows, BadgeCount{BadgeID: b.ID, Title: b.Title, Count: badgeCounts[b.ID]})
	}
	studentRows := make([]StudentCount, 0, len(students))
	for _, u := range students {
		studentRows = append(studentRows, StudentCount{
			UserID: u.ID,
			Name:   toUser(u).DisplayName(),
			Email:  u.Email,
			Count:  studentCounts[u.ID],
		})
	}

	byBadgeName := func(a, b BadgeCount) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.BadgeID, b.BadgeID))
	}
	byStudentName := func(a, b StudentCount) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UserID, b.UserID))
	}

	popular := slices.Clone(badgeRows)
	slices.SortFunc(popular, func(a, b BadgeCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), byBadgeName(a, b))
	})
	rare := slices.Clone(badgeRows)
	slices.SortFunc(rare, func(a, b BadgeCount) int {
		return cmp.Or(cmp.Compare(a.Count, b.Count), byBadgeName(a, b))
	})
	top := slices.Clone(studentRows)
	slices.SortFunc(top, func(a, b StudentCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), byStudentName(a, b))
	})
	bottom := slices.Clone(studentRows)
	slices.SortFunc(bottom, func(a, b StudentCount) int {
		return cmp.Or(cmp.Compare(a.Count, b.Count), byStudentName(a, b))
	})

	return Dashboard{
		TotalStudents:  len(students),
		TotalBadges:    len(badges),
		TotalAwards:    len(awards),
		PopularBadges:  head(popular, dashboardBadgeLimit),
		RareBadges:     head(rare, dashboardBadgeLimit),
		TopStudents:    head(top, dashboardStudentLimit),
		BottomStudents: head(bottom, dashboardStudentLimit),
	}
}

func head[T any](in []T, n int) []T {
	if len(in) > n {
		return in[:n]
	}
	return in
}
