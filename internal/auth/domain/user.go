package domain

import "time"

// Role is the closed, ordered set of roles. Ordering is by privilege:
// employee < manager < admin.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Rank returns the privilege rank of the role, or 0 for an unknown role
// so that an unrecognized value never outranks anything.
func (r Role) Rank() int {
	switch r {
	case RoleEmployee:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	Position     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is the durable record backing one outstanding refresh
// token. Exactly one record exists per issued token; rotation deletes
// the old record and inserts a new one, never updates in place.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Identity is the authenticated subject attached to a request by the
// authenticator middleware. It lives only for the duration of one
// request and is never persisted.
type Identity struct {
	UserID     string
	Email      string
	Role       Role
	Department string
}
