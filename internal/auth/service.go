// Package auth is the account and session provider: registration, credential
// checks and opaque session tokens. It owns the failure taxonomy that the
// registration form translates into user-facing messages.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gottabeautomated/WILMA-Mk1/internal/cache"
	"github.com/gottabeautomated/WILMA-Mk1/internal/log"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
)

// MinPasswordLength matches the identity provider rule the registration form
// reports as "password too weak".
const MinPasswordLength = 6

const (
	sessionTTL      = 30 * 24 * time.Hour
	sessionCacheTTL = 5 * time.Minute

	// defaultSessionCacheSize is used when the caller passes no bound.
	defaultSessionCacheSize = 1000
)

var (
	// ErrEmailTaken reports that the address is already registered.
	ErrEmailTaken = errors.New("email address already in use")
	// ErrWeakPassword reports a password below the minimum length.
	ErrWeakPassword = errors.New("password too weak")
	// ErrInvalidEmail reports a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidCredentials reports a failed login. Deliberately does not
	// distinguish unknown address from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	users store.UserStore

	// sessionCache keeps hot session lookups off the store; entries are
	// dropped on revoke so a logged-out token cannot be served from cache.
	sessionCache *cache.LRU[store.User]
}

// NewService builds the account service. sessionCacheSize bounds the session
// lookup cache; values below 1 fall back to the default.
func NewService(users store.UserStore, sessionCacheSize int) *Service {
	if sessionCacheSize < 1 {
		sessionCacheSize = defaultSessionCacheSize
	}
	return &Service{
		users:        users,
		sessionCache: cache.NewLRU[store.User](sessionCacheSize, sessionCacheTTL),
	}
}

// CreateAccount registers a new user. It does not issue a session: the
// registration flow sends the user to the login page instead of
// auto-authenticating.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return store.User{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return store.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, hash)
	if errors.Is(err, store.ErrEmailTaken) {
		return store.User{}, ErrEmailTaken
	}
	if err != nil {
		return store.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "Account created", log.FieldUserID, user.ID)
	return user, nil
}

// Authenticate verifies credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueSession creates an opaque session token for the user.
func (s *Service) IssueSession(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	if err := s.users.SaveSession(ctx, token, userID, time.Now().Add(sessionTTL)); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// UserBySession resolves a session token to its account, or
// store.ErrNotFound when the token is unknown or expired.
func (s *Service) UserBySession(ctx context.Context, token string) (store.User, error) {
	if user, ok := s.sessionCache.Get(token); ok {
		return user, nil
	}

	user, err := s.users.UserBySession(ctx, token)
	if err != nil {
		return store.User{}, err
	}
	s.sessionCache.Set(token, user)
	return user, nil
}

// RevokeSession invalidates a token everywhere, including the lookup cache.
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	s.sessionCache.Delete(token)
	if err := s.users.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SessionCache exposes the cache for registration with the cleanup manager.
func (s *Service) SessionCache() *cache.LRU[store.User] {
	return s.sessionCache
}
