package dto

import (
	"time"

	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/domain"
)

// UserOutput is the wire shape of a user. It deliberately has no field
// for the password hash.
type UserOutput struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	Position   string    `json:"position,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:         u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		Department: u.Department,
		Position:   u.Position,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
