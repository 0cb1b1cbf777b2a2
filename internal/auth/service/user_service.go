package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jawa090/Rush-Management-system-sub000/config"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/audit"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/domain"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/dto"
	autherror "github.com/Jawa090/Rush-Management-system-sub000/internal/errors"
	"github.com/Jawa090/Rush-Management-system-sub000/pkg/constant"
)

// UserService orchestrates the session lifecycle. It is the only
// component that creates or deletes refresh records.
type UserService struct {
	repo       domain.UserRepository
	tokens     TokenGenerator
	auditor    audit.Recorder
	bcryptCost int
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, auditor audit.Recorder, cfg *config.Config) *UserService {
	cost := bcrypt.DefaultCost
	if cfg != nil && cfg.BcryptCost > 0 {
		cost = cfg.BcryptCost
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}

	return &UserService{
		repo:       repo,
		tokens:     tokens,
		auditor:    auditor,
		bcryptCost: cost,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         domain.Role(constant.DefaultUserRole),
		Department:   input.Department,
		Position:     input.Position,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates by email and password. An unknown email, a wrong
// password, and a deactivated account all fail with the same error so
// the endpoint cannot be used to probe which accounts exist.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutput, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil || !user.Active ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		s.auditor.Record(ctx, audit.Event{
			Email:     email,
			Action:    audit.ActionLoginFailure,
			Code:      autherror.ErrInvalidCredentials.Code,
			IPAddress: input.IPAddress,
		})

		return nil, autherror.ErrInvalidCredentials
	}

	access, refresh, refreshExpiresAt, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	rt := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: refreshExpiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.repo.StoreRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		UserID:    user.ID,
		Email:     user.Email,
		Action:    audit.ActionLoginSuccess,
		IPAddress: input.IPAddress,
	})

	out := dto.NewUserOutput(user)

	return &dto.LoginOutput{
		User:         out,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh rotates a refresh token: the old record is deleted and a new
// one inserted, never updated in place. The single-row delete on the
// exact token string is the linearization point, so of N concurrent
// refreshes using the same token exactly one succeeds and the rest fail
// with ErrInvalidRefreshToken.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenPairOutput, error) {
	claims, err := s.tokens.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		s.auditFailedRefresh(ctx, "", input.IPAddress)
		return nil, autherror.ErrInvalidRefreshToken
	}

	record, err := s.repo.GetRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}
	// A missing record covers every revocation path the same way:
	// already rotated, logged out, swept, or forged.
	if record == nil || record.UserID != claims.UserID || time.Now().After(record.ExpiresAt) {
		s.auditFailedRefresh(ctx, claims.UserID, input.IPAddress)
		return nil, autherror.ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		s.auditFailedRefresh(ctx, record.UserID, input.IPAddress)
		return nil, autherror.ErrInvalidRefreshToken
	}

	deleted, err := s.repo.DeleteRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !deleted {
		// Lost the race with a concurrent refresh holding the same token.
		s.auditFailedRefresh(ctx, record.UserID, input.IPAddress)
		return nil, autherror.ErrInvalidRefreshToken
	}

	access, refresh, refreshExpiresAt, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	newRecord := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: refreshExpiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.repo.StoreRefreshToken(ctx, newRecord); err != nil {
		return nil, fmt.Errorf("store rotated refresh token: %w", err)
	}

	return &dto.TokenPairOutput{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *UserService) auditFailedRefresh(ctx context.Context, userID, ip string) {
	s.auditor.Record(ctx, audit.Event{
		UserID:    userID,
		Action:    audit.ActionRefreshFailure,
		Code:      autherror.ErrInvalidRefreshToken.Code,
		IPAddress: ip,
	})
}

// Logout deletes the session record for the given refresh token. It is
// best-effort by design: internal failures are logged, never returned,
// because a client must always be able to clear its local state.
func (s *UserService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	if _, err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		log.Printf("warn: failed to delete refresh token on logout: %v", err)
		return
	}

	s.auditor.Record(ctx, audit.Event{Action: audit.ActionLogout})
}

// LogoutAll deletes every session record for the user. Called on
// explicit "sign out everywhere" and unconditionally after a password
// change.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.DeleteRefreshTokensByUserID(ctx, userID); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Event{
		UserID: userID,
		Action: audit.ActionLogoutAll,
	})

	return nil
}

// ChangePassword verifies the current password, stores the new hash, and
// invalidates every existing session for the user, no exceptions.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrSubjectNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)) != nil {
		return autherror.ErrInvalidCurrentPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Event{
		UserID: userID,
		Email:  user.Email,
		Action: audit.ActionPasswordChange,
	})

	return s.LogoutAll(ctx, userID)
}

// SweepExpired deletes every session record past its expiry. Idempotent
// and safe to run concurrently with logins and refreshes.
func (s *UserService) SweepExpired(ctx context.Context) {
	n, err := s.repo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("warn: expired session sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("session sweep removed %d expired refresh tokens", n)
	}
}

// StartSweeper runs SweepExpired on a fixed interval until stop is
// closed.
func (s *UserService) StartSweeper(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.SweepExpired(ctx)
			case <-stop:
				return
			}
		}
	}()
}
