package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukahq/storefront/internal/auth"
	"github.com/dukahq/storefront/internal/core/domain/entity"
)

var _ auth.UserStore = (*UserRepository)(nil)

// UserRepository is the credential and role store.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (entity.User, error) {
	const q = `
		SELECT id, email, full_name, password_hash, created_at
		FROM   users
		WHERE  email = ?`

	var (
		user      entity.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return entity.User{}, fmt.Errorf("sqlite: user %q not found", email)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("sqlite: user by email: %w", err)
	}

	user.CreatedAt, err = parseTime(createdAt)
	return user, err
}

// RoleOf returns the user's role, or "" when no role row exists — the
// auth service defaults that to customer.
func (r *UserRepository) RoleOf(ctx context.Context, userID string) (entity.Role, error) {
	const q = `SELECT role FROM user_roles WHERE user_id = ?`

	var role string
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: role of %q: %w", userID, err)
	}
	return entity.Role(role), nil
}

// CreateUser inserts a user with an optional role row. Used by the
// seed-admin command and tests, not by the HTTP surface.
func (r *UserRepository) CreateUser(ctx context.Context, user entity.User, role entity.Role) error {
	const insertUser = `
		INSERT INTO users (id, email, full_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, insertUser,
		user.ID, user.Email, user.FullName, user.PasswordHash, formatTime(user.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: create user %q: %w", user.Email, err)
	}

	if role == "" {
		return nil
	}
	const insertRole = `INSERT INTO user_roles (user_id, role) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, insertRole, user.ID, string(role)); err != nil {
		return fmt.Errorf("sqlite: assign role to %q: %w", user.Email, err)
	}
	return nil
}
