package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccountStore exposes the roster operations the auth service depends on.
type AccountStore interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	SetSessionUser(ctx context.Context, id string) error
	ClearSessionUser(ctx context.Context) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// Session is an issued session token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// AuthenticateResult is returned by a successful login.
type AuthenticateResult struct {
	User    User
	Session Session
}

// sessionClaims is the signed payload of a session token.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthServiceConfig wires the auth service.
type AuthServiceConfig struct {
	Accounts AccountStore
	Secret   []byte
	TTL      time.Duration
	Verify   PasswordVerifier
	TokenID  func() string
	Now      func() time.Time
	Logger   *slog.Logger
}

// AuthService issues and validates HS256 session tokens. Logout denylists the
// token id until the token would have expired anyway.
type AuthService struct {
	accounts       AccountStore
	secret         []byte
	sessionTTL     time.Duration
	verifyPassword PasswordVerifier
	tokenID        func() string
	now            func() time.Time
	logger         *slog.Logger

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if cfg.Accounts == nil {
		return nil, errors.New("auth: account store is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	verify := cfg.Verify
	if verify == nil {
		verify = VerifyPassword
	}
	tokenID := cfg.TokenID
	if tokenID == nil {
		tokenID = uuid.NewString
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		accounts:       cfg.Accounts,
		secret:         cfg.Secret,
		sessionTTL:     ttl,
		verifyPassword: verify,
		tokenID:        tokenID,
		now:            now,
		logger:         defaultLogger(cfg.Logger),
		revoked:        make(map[string]time.Time),
	}, nil
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token. Pending
// accounts are refused even with a correct password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	email = normalizeEmail(email)
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded", "user_id", result.User.ID)
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user User
	user, err = s.accounts.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if user.PasswordHash == "" || s.verifyPassword(user.PasswordHash, password) != nil {
		err = ErrInvalidCredentials
		return
	}
	if user.Status != StatusApproved {
		err = ErrAccountPending
		return
	}

	var session Session
	session, err = s.issue(user)
	if err != nil {
		return
	}
	if err = s.accounts.SetSessionUser(ctx, user.ID); err != nil {
		return
	}

	result = AuthenticateResult{User: user, Session: session}
	return
}

func (s *AuthService) issue(user User) (Session, error) {
	now := s.now()
	expires := now.Add(s.sessionTTL)
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        s.tokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: token, UserID: user.ID, ExpiresAt: expires}, nil
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// ValidateSession verifies token and returns the principal it represents. The
// role is read from the current user record so promotions and demotions take
// effect immediately.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	token = strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.DebugContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if token == "" {
		err = ErrUnauthorized
		return
	}

	var claims *sessionClaims
	claims, err = s.parse(token)
	if err != nil {
		return
	}
	if s.isRevoked(claims.ID) {
		err = ErrSessionRevoked
		return
	}

	var user User
	user, err = s.accounts.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if user.Status != StatusApproved {
		err = ErrAccountPending
		return
	}

	principal = Principal{UserID: user.ID, Role: user.Role}
	return
}

// RevokeSession invalidates token and clears the session pointer.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	logger := s.loggerWith(ctx, "RevokeSession")

	claims, err := s.parse(strings.TrimSpace(token))
	if err != nil {
		logger.WarnContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.mu.Lock()
	now := s.now()
	for id, expiry := range s.revoked {
		if !expiry.After(now) {
			delete(s.revoked, id)
		}
	}
	if claims.ID != "" {
		s.revoked[claims.ID] = claims.ExpiresAt.Time
	}
	s.mu.Unlock()

	if err := s.accounts.ClearSessionUser(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to clear session pointer", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked", "user_id", claims.Subject)
	return nil
}

func (s *AuthService) isRevoked(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}
