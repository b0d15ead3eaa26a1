package domain

import (
	"context"
	"errors"
	"slices"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrBadCredentials is returned for a wrong email/password pair without
	// distinguishing which half was wrong.
	ErrBadCredentials = errors.New("invalid email or password")
)

// Role codes assigned to users. Admins manage campaigns, invites and membership.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an account in the scheduling tool.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Roles        []string  `json:"roles"`
	PasswordSalt string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor identifies who is performing an operation, as established by the
// session token. Authorization checks run against it before any store call.
type Actor struct {
	UID   string
	Roles []string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return slices.Contains(a.Roles, RoleAdmin)
}

// UserService defines account operations.
type UserService interface {
	SignUp(ctx context.Context, email, name, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (string, *User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (string, error)
	Compare(hash, salt, password string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier validates a session token and returns the actor it names.
type TokenVerifier interface {
	Verify(token string) (*Actor, error)
}
