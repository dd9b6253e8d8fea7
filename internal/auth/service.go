// Package auth wraps the credential store: bcrypt sign-in, JWT session
// tokens carrying the user's role, and the role lookup with an optional
// Redis cache in front of it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/pkg/cache"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so
// the response leaks nothing about which one it was.
var ErrInvalidCredentials = errors.New("auth: invalid email or password")

// UserStore is the credential/role slice of the backing store.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (entity.User, error)
	RoleOf(ctx context.Context, userID string) (entity.Role, error)
}

const roleCacheTTL = 10 * time.Minute

// Service issues and resolves sessions. cache may be nil.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	cache  cache.Cache
}

func NewService(users UserStore, tokens *TokenIssuer, c cache.Cache) *Service {
	return &Service{users: users, tokens: tokens, cache: c}
}

// SignIn checks the credential pair and returns the session plus a signed
// token for subsequent requests.
func (s *Service) SignIn(ctx context.Context, email, password string) (entity.Session, string, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return entity.Session{}, "", ErrInvalidCredentials
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return entity.Session{}, "", ErrInvalidCredentials
	}

	role, err := s.roleOf(ctx, user.ID)
	if err != nil {
		return entity.Session{}, "", fmt.Errorf("auth: resolve role for %s: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(user.ID, string(role))
	if err != nil {
		return entity.Session{}, "", err
	}

	session := entity.Session{UserID: user.ID, Email: user.Email, Role: role}
	slog.InfoContext(ctx, "user signed in", "user_id", user.ID, "role", role)
	return session, token, nil
}

// SessionFromToken validates a bearer token and rebuilds the session.
func (s *Service) SessionFromToken(ctx context.Context, raw string) (entity.Session, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return entity.Session{}, err
	}
	return entity.Session{
		UserID: claims.Subject,
		Role:   entity.Role(claims.Role),
	}, nil
}

// roleOf resolves a user's role, defaulting to customer when no role row
// exists, with a cache in front when configured.
func (s *Service) roleOf(ctx context.Context, userID string) (entity.Role, error) {
	if s.cache != nil {
		key := s.cache.GenerateKey("role", userID)
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			return entity.Role(cached), nil
		}
	}

	role, err := s.users.RoleOf(ctx, userID)
	if err != nil {
		return "", err
	}
	if role == "" {
		role = entity.RoleCustomer
	}

	if s.cache != nil {
		key := s.cache.GenerateKey("role", userID)
		if err := s.cache.Set(ctx, key, string(role), roleCacheTTL); err != nil {
			slog.WarnContext(ctx, "auth: role cache set failed", "user_id", userID, "error", err)
		}
	}
	return role, nil
}
