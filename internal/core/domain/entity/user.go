package entity

import "time"

// Role decides which routes a signed-in user may reach.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// User is a credential-store row. PasswordHash is a bcrypt digest and
// never leaves the auth package.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is the authenticated identity injected into request contexts
// by the auth middleware.
type Session struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the session may reach admin routes.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
