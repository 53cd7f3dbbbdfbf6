package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/persistence"
)

// AccountStore exposes the user lookups and writes required by the auth service.
type AccountStore interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
}

// SessionStore captures the persistence interactions for issued sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, token string) (persistence.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthService coordinates registration, login and session checks.
type AuthService struct {
	accounts       AccountStore
	sessions       SessionStore
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	events         changefeed.Publisher
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(accounts AccountStore, sessions SessionStore, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(accounts, sessions, idGenerator, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(accounts AccountStore, sessions SessionStore, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:       accounts,
		sessions:       sessions,
		hashPassword:   HashPassword,
		verifyPassword: VerifyPassword,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		events:         changefeed.Discard,
		logger:         defaultLogger(logger),
	}
}

// WithPasswordFuncs replaces the password hasher and verifier.
func (s *AuthService) WithPasswordFuncs(hash PasswordHasher, verify PasswordVerifier) *AuthService {
	if hash != nil {
		s.hashPassword = hash
	}
	if verify != nil {
		s.verifyPassword = verify
	}
	return s
}

// WithPublisher routes account change events to p.
func (s *AuthService) WithPublisher(p changefeed.Publisher) *AuthService {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register opens a new account. Role defaults to student.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID, "role", user.Role).InfoContext(ctx, "account registered")
	}()

	role := strings.TrimSpace(params.Role)
	if role == "" {
		role = RoleStudent
	}

	vErr := &ValidationError{}
	if email == "" {
		vErr.Add("email", "email is required")
	} else if _, perr := mail.ParseAddress(email); perr != nil {
		vErr.Add("email", "email is invalid")
	}
	if len(params.Password) < MinPasswordLength {
		vErr.Add("password", fmt.Sprintf("password must have at least %d characters", MinPasswordLength))
	}
	if role != RoleStudent && role != RoleAdmin {
		vErr.Add("role", "role must be student or admin")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, lookupErr := s.accounts.GetUserByEmail(ctx, email); lookupErr == nil {
		err = ErrAlreadyExists
		return
	} else if !errors.Is(lookupErr, persistence.ErrNotFound) {
		err = mapRepoError("Register", lookupErr)
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now().UTC()
	record := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		Name:         normalizeOptionalString(&params.Name),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.accounts.CreateUser(ctx, record); err != nil {
		err = mapRepoError("Register", err)
		return
	}

	user = toUser(record)
	s.events.Publish(ctx, changefeed.Event{Table: changefeed.TableUsers, Action: changefeed.ActionInsert, ID: user.ID, At: now})
	return
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.accounts == nil || s.sessions == nil {
		err = fmt.Errorf("auth stores not configured")
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var account persistence.User
	account, err = s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = mapRepoError("Authenticate", err)
		return
	}

	if verr := s.verifyPassword(account.PasswordHash, params.Password); verr != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now().UTC()
	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		err = mapRepoError("Authenticate", err)
		return
	}

	id := s.idGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	var persisted persistence.Session
	persisted, err = s.sessions.CreateSession(ctx, persistence.Session{
		ID:        id,
		UserID:    account.ID,
		Token:     token,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		err = mapRepoError("Authenticate", err)
		return
	}

	result = AuthenticateResult{User: toUser(account), Session: toSession(persisted)}
	return
}

// ValidateSession verifies that token belongs to an active session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.accounts == nil || s.sessions == nil {
		err = fmt.Errorf("auth stores not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthenticated
		return
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthenticated
			return
		}
		err = mapRepoError("ValidateSession", err)
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var account persistence.User
	account, err = s.accounts.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthenticated
			return
		}
		err = mapRepoError("ValidateSession", err)
		return
	}

	principal = Principal{UserID: account.ID, IsAdmin: account.Role == RoleAdmin}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthenticated
	}

	logger := s.loggerWith(ctx, "RevokeSession")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now().UTC()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.WarnContext(ctx, "failed to revoke session", "error", ErrUnauthenticated, "error_kind", ErrorKind(ErrUnauthenticated))
			return ErrUnauthenticated
		}
		err = mapRepoError("RevokeSession", err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now().UTC()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err)
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
