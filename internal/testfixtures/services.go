package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/sparkboard/internal/application"
	"github.com/example/sparkboard/internal/changefeed"
)

// Store is everything the application services need from persistence.
// Both storage backends satisfy it.
type Store interface {
	application.AccountStore
	application.SessionStore
	application.UserStore
	application.AwardLister
	application.BadgeStore
	application.AwardStore
	application.SparkStore
	application.AnalyticsSource
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Publisher   changefeed.Publisher
	SessionTTL  time.Duration
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Publisher:   changefeed.Discard,
		SessionTTL:  time.Hour,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Publisher == nil {
		factory.Publisher = changefeed.Discard
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithPublisher routes change events from every built service to p.
func WithPublisher(p changefeed.Publisher) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Publisher = p
	}
}

// Services bundles one instance of every application service.
type Services struct {
	Auth      *application.AuthService
	Users     *application.UserService
	Badges    *application.BadgeService
	Awards    *application.AwardService
	Sparks    *application.SparkService
	Analytics *application.AnalyticsService
}

// Build wires every service over store.
func (f *ServiceFactory) Build(store Store) Services {
	ids := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	return Services{
		Auth: application.NewAuthServiceWithLogger(store, store, ids, ids, now, f.SessionTTL, f.Logger).
			WithPublisher(f.Publisher),
		Users: application.NewUserServiceWithLogger(store, store, now, f.Logger).
			WithPublisher(f.Publisher),
		Badges: application.NewBadgeServiceWithLogger(store, ids, now, f.Logger).
			WithPublisher(f.Publisher),
		Awards: application.NewAwardServiceWithLogger(store, store, store, ids, now, f.Logger).
			WithPublisher(f.Publisher),
		Sparks: application.NewSparkServiceWithLogger(store, ids, now, f.Logger).
			WithPublisher(f.Publisher),
		Analytics: application.NewAnalyticsServiceWithLogger(store, 0, now, f.Logger),
	}
}
