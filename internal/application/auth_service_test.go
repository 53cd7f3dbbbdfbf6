package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

func plainHash(password string) (string, error) { return "plain:" + password, nil }

func plainVerify(hash, password string) error {
	if hash != "plain:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func newAuthFixture(now time.Time) (*AuthService, *storeStub, *recordingPublisher) {
	store := newStoreStub()
	events := &recordingPublisher{}
	svc := NewAuthService(store, store, sequence("id"), sequence("token"), fixedClock(now), time.Hour).
		WithPasswordFuncs(plainHash, plainVerify).
		WithPublisher(events)
	return svc, store, events
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("creates a student account with a normalised email", func(t *testing.T) {
		t.Parallel()
		svc, store, events := newAuthFixture(now)

		user, err := svc.Register(context.Background(), RegisterParams{Email: " Ana@Example.COM ", Password: "secret1", Name: " Ana "})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.Email != "ana@example.com" || user.Role != RoleStudent {
			t.Fatalf("unexpected user %+v", user)
		}
		if user.Name == nil || *user.Name != "Ana" {
			t.Fatalf("expected trimmed name, got %v", user.Name)
		}
		stored := store.users[user.ID]
		if stored.PasswordHash != "plain:secret1" {
			t.Fatalf("expected hashed password to be stored, got %q", stored.PasswordHash)
		}
		if got := events.Events(); len(got) != 1 || got[0].Table != changefeed.TableUsers {
			t.Fatalf("expected users insert event, got %+v", got)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(now)

		_, err := svc.Register(context.Background(), RegisterParams{Email: "not-an-email", Password: "123", Role: "owner"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "password", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newAuthFixture(now)
		store.addUser("existing", "ana@example.com", "", RoleStudent)

		_, err := svc.Register(context.Background(), RegisterParams{Email: "ana@example.com", Password: "secret1"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("maps a duplicate insert", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newAuthFixture(now)
		store.createUserErr = persistence.ErrDuplicate

		_, err := svc.Register(context.Background(), RegisterParams{Email: "ana@example.com", Password: "secret1"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestAuthService_AuthenticateAndValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newAuthFixture(now)
		if _, err := svc.Register(context.Background(), RegisterParams{Email: "ana@example.com", Password: "secret1"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ANA@example.com", Password: "secret1"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Session.Token != "token-1" {
			t.Fatalf("expected generated token, got %q", result.Session.Token)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected expiry one TTL ahead, got %v", result.Session.ExpiresAt)
		}
		if len(store.deleteExpired) != 1 || !store.deleteExpired[0].Equal(now) {
			t.Fatalf("expected expired sessions pruned at now, got %v", store.deleteExpired)
		}

		principal, err := svc.ValidateSession(context.Background(), " token-1 ")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.UserID != result.User.ID || principal.IsAdmin {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("rejects unknown emails and wrong passwords alike", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newAuthFixture(now)
		u := store.addUser("u1", "ana@example.com", "", RoleStudent)
		u.PasswordHash = "plain:secret1"
		store.users["u1"] = u

		for _, params := range []AuthenticateParams{
			{Email: "nobody@example.com", Password: "secret1"},
			{Email: "ana@example.com", Password: "wrong"},
			{Email: "", Password: ""},
		} {
			if _, err := svc.Authenticate(context.Background(), params); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", params, err)
			}
		}
	})

	t.Run("flags admins", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newAuthFixture(now)
		store.addUser("root", "root@example.com", "", RoleAdmin)
		store.sessions["tok"] = persistence.Session{ID: "s", UserID: "root", Token: "tok", ExpiresAt: now.Add(time.Minute)}

		principal, err := svc.ValidateSession(context.Background(), "tok")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if !principal.IsAdmin {
			t.Fatalf("expected admin principal")
		}
	})

	t.Run("classifies invalid sessions", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newAuthFixture(now)
		store.addUser("u1", "ana@example.com", "", RoleStudent)
		revokedAt := now.Add(-time.Minute)
		store.sessions["expired"] = persistence.Session{UserID: "u1", Token: "expired", ExpiresAt: now}
		store.sessions["revoked"] = persistence.Session{UserID: "u1", Token: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}
		store.sessions["orphan"] = persistence.Session{UserID: "gone", Token: "orphan", ExpiresAt: now.Add(time.Hour)}

		cases := map[string]error{
			"":        ErrUnauthenticated,
			"missing": ErrUnauthenticated,
			"expired": ErrSessionExpired,
			"revoked": ErrSessionRevoked,
			"orphan":  ErrUnauthenticated,
		}
		for token, want := range cases {
			if _, err := svc.ValidateSession(context.Background(), token); !errors.Is(err, want) {
				t.Fatalf("token %q: expected %v, got %v", token, want, err)
			}
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, store, _ := newAuthFixture(now)
	store.addUser("u1", "ana@example.com", "", RoleStudent)
	store.sessions["tok"] = persistence.Session{UserID: "u1", Token: "tok", ExpiresAt: now.Add(time.Hour)}

	if err := svc.RevokeSession(context.Background(), "tok"); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected revoked session, got %v", err)
	}
	if err := svc.RevokeSession(context.Background(), "unknown"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown token, got %v", err)
	}
	if err := svc.RevokeSession(context.Background(), " "); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for blank token, got %v", err)
	}
}
