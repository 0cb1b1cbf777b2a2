package domain

import "context"

//go:generate mockgen -destination=../../mocks/mock_repository.go -package=mocks github.com/Jawa090/Rush-Management-system-sub000/internal/auth/domain UserRepository

// UserRepository is the credential store: users plus their outstanding
// refresh records. Lookup methods return (nil, nil) when no row matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	StoreRefreshToken(ctx context.Context, rt *RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	// DeleteRefreshToken removes the record for the exact token string and
	// reports whether a record was deleted. The single-row delete is the
	// linearization point for rotation: of N concurrent refreshes holding
	// the same token, exactly one observes true.
	DeleteRefreshToken(ctx context.Context, token string) (bool, error)
	DeleteRefreshTokensByUserID(ctx context.Context, userID string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}
