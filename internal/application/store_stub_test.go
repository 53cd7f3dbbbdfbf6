package application

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

// storeStub is an in-memory stand-in for the persistence layer. Fields ending in
// Err are returned by the matching operation when set.
type storeStub struct {
	mu sync.Mutex

	users    map[string]persistence.User
	sessions map[string]persistence.Session
	badges   map[string]persistence.Badge
	awards   []persistence.Award
	sparks   []persistence.SparkMoment

	createUserErr    error
	getUserErr       error
	listUsersErr     error
	countErr         error
	createSparkErr   error
	deleteSparkErr   error
	deleteSparkCalls int
	listSparksErr    error
	createAwardErr   error

	countCalls      int
	listSparksCalls int
	listUsersCalls  int
	deleteExpired   []time.Time
}

func newStoreStub() *storeStub {
	return &storeStub{
		users:    make(map[string]persistence.User),
		sessions: make(map[string]persistence.Session),
		badges:   make(map[string]persistence.Badge),
	}
}

func (s *storeStub) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createUserErr != nil {
		return s.createUserErr
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *storeStub) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *storeStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getUserErr != nil {
		return persistence.User{}, s.getUserErr
	}
	u, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (s *storeStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *storeStub) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listUsersCalls++
	if s.listUsersErr != nil {
		return nil, s.listUsersErr
	}
	var out []persistence.User
	for _, u := range s.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *storeStub) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return session, nil
}

func (s *storeStub) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *storeStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *storeStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteExpired = append(s.deleteExpired, reference)
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *storeStub) CreateBadge(ctx context.Context, badge persistence.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges[badge.ID] = badge
	return nil
}

func (s *storeStub) UpdateBadge(ctx context.Context, badge persistence.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.badges[badge.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.badges[badge.ID] = badge
	return nil
}

func (s *storeStub) GetBadge(ctx context.Context, id string) (persistence.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.badges[id]
	if !ok {
		return persistence.Badge{}, persistence.ErrNotFound
	}
	return b, nil
}

func (s *storeStub) ListBadges(ctx context.Context) ([]persistence.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]persistence.Badge, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *storeStub) DeleteBadge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.badges[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.badges, id)
	kept := s.awards[:0]
	for _, a := range s.awards {
		if a.BadgeID != id {
			kept = append(kept, a)
		}
	}
	s.awards = kept
	return nil
}

func (s *storeStub) CreateAward(ctx context.Context, award persistence.Award) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createAwardErr != nil {
		return s.createAwardErr
	}
	for _, a := range s.awards {
		if a.UserID == award.UserID && a.BadgeID == award.BadgeID {
			return persistence.ErrDuplicate
		}
	}
	s.awards = append(s.awards, award)
	return nil
}

func (s *storeStub) DeleteAward(ctx context.Context, userID, badgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.awards {
		if a.UserID == userID && a.BadgeID == badgeID {
			s.awards = append(s.awards[:i], s.awards[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *storeStub) ListAwards(ctx context.Context) ([]persistence.Award, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]persistence.Award(nil), s.awards...), nil
}

func (s *storeStub) ListAwardsForUser(ctx context.Context, userID string) ([]persistence.AwardedBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persistence.AwardedBadge
	for i := len(s.awards) - 1; i >= 0; i-- {
		a := s.awards[i]
		if a.UserID == userID {
			out = append(out, persistence.AwardedBadge{AwardID: a.ID, Badge: s.badges[a.BadgeID], AwardedAt: a.CreatedAt})
		}
	}
	return out, nil
}

func (s *storeStub) CountSparkMomentsByDate(ctx context.Context, day booking.Day) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	n := 0
	for _, m := range s.sparks {
		if m.Date.Equal(day) {
			n++
		}
	}
	return n, nil
}

func (s *storeStub) CountSparkMomentsBetween(ctx context.Context, from, until booking.Day) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return nil, s.countErr
	}
	out := make(map[string]int)
	for _, m := range s.sparks {
		if !m.Date.Before(from) && !m.Date.After(until) {
			out[m.Date.String()]++
		}
	}
	return out, nil
}

func (s *storeStub) CreateSparkMomentWithinCapacity(ctx context.Context, moment persistence.SparkMoment, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createSparkErr != nil {
		return s.createSparkErr
	}
	n := 0
	for _, m := range s.sparks {
		if m.Date.Equal(moment.Date) {
			n++
		}
	}
	if n >= capacity {
		return persistence.ErrCapacityExceeded
	}
	s.sparks = append(s.sparks, moment)
	return nil
}

func (s *storeStub) GetSparkMoment(ctx context.Context, id string) (persistence.SparkMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.sparks {
		if m.ID == id {
			return m, nil
		}
	}
	return persistence.SparkMoment{}, persistence.ErrNotFound
}

func (s *storeStub) DeleteSparkMomentOwnedBy(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteSparkCalls++
	if s.deleteSparkErr != nil {
		return s.deleteSparkErr
	}
	for i, m := range s.sparks {
		if m.ID == id && m.UserID == ownerID {
			s.sparks = append(s.sparks[:i], s.sparks[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *storeStub) ListSparkMoments(ctx context.Context) ([]persistence.SparkMomentListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSparksCalls++
	if s.listSparksErr != nil {
		return nil, s.listSparksErr
	}
	rows := append([]persistence.SparkMoment(nil), s.sparks...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	out := make([]persistence.SparkMomentListing, 0, len(rows))
	for _, m := range rows {
		owner := s.users[m.UserID]
		out = append(out, persistence.SparkMomentListing{SparkMoment: m, OwnerName: owner.Name, OwnerAvatarURL: owner.AvatarURL})
	}
	return out, nil
}

func (s *storeStub) addUser(id, email, name, role string) persistence.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := persistence.User{ID: id, Email: email, Role: role, PasswordHash: "hash"}
	if name != "" {
		u.Name = &name
	}
	s.users[id] = u
	return u
}

func (s *storeStub) sparkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sparks)
}

// sequence returns a generator yielding prefix-1, prefix-2, ...
func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []changefeed.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event changefeed.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []changefeed.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]changefeed.Event(nil), p.events...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
