package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahq/storefront/internal/core/domain/entity"
)

type stubUsers struct {
	user      entity.User
	role      entity.Role
	roleCalls int
}

func (s *stubUsers) UserByEmail(ctx context.Context, email string) (entity.User, error) {
	if email != s.user.Email {
		return entity.User{}, errors.New("not found")
	}
	return s.user, nil
}

func (s *stubUsers) RoleOf(ctx context.Context, userID string) (entity.Role, error) {
	s.roleCalls++
	return s.role, nil
}

func seededUsers(t *testing.T, role entity.Role) *stubUsers {
	t.Helper()
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	return &stubUsers{
		user: entity.User{ID: "u1", Email: "admin@duka.co.ke", PasswordHash: string(hash)},
		role: role,
	}
}

func TestSignInSuccess(t *testing.T) {
	users := seededUsers(t, entity.RoleAdmin)
	svc := NewService(users, NewTokenIssuer("secret", time.Hour), nil)

	session, token, err := svc.SignIn(context.Background(), "admin@duka.co.ke", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, entity.RoleAdmin, session.Role)
	assert.NotEmpty(t, token)

	// The token round-trips back into a session carrying the role.
	restored, err := svc.SessionFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", restored.UserID)
	assert.Equal(t, entity.RoleAdmin, restored.Role)
}

func TestSignInWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	users := seededUsers(t, entity.RoleAdmin)
	svc := NewService(users, NewTokenIssuer("secret", time.Hour), nil)

	_, _, errWrongPassword := svc.SignIn(context.Background(), "admin@duka.co.ke", "nope")
	_, _, errUnknownEmail := svc.SignIn(context.Background(), "ghost@duka.co.ke", "hunter22")

	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestSignInDefaultsMissingRoleToCustomer(t *testing.T) {
	users := seededUsers(t, "")
	svc := NewService(users, NewTokenIssuer("secret", time.Hour), nil)

	session, _, err := svc.SignIn(context.Background(), "admin@duka.co.ke", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCustomer, session.Role)
}

func TestSessionFromTokenRejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	svc := NewService(seededUsers(t, entity.RoleCustomer), issuer, nil)

	token, err := issuer.Issue("u1", string(entity.RoleCustomer))
	require.NoError(t, err)

	_, err = svc.SessionFromToken(context.Background(), token+"x")
	assert.Error(t, err)

	// Same token signed with a different secret is rejected too.
	other := NewTokenIssuer("other-secret", time.Hour)
	foreign, err := other.Issue("u1", string(entity.RoleAdmin))
	require.NoError(t, err)
	_, err = svc.SessionFromToken(context.Background(), foreign)
	assert.Error(t, err)
}

func TestSessionFromTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)
	svc := NewService(seededUsers(t, entity.RoleCustomer), issuer, nil)

	token, err := issuer.Issue("u1", string(entity.RoleCustomer))
	require.NoError(t, err)

	_, err = svc.SessionFromToken(context.Background(), token)
	assert.Error(t, err)
}
