package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jawa090/Rush-Management-system-sub000/config"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/audit"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/domain"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/dto"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/service"
	autherror "github.com/Jawa090/Rush-Management-system-sub000/internal/errors"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/mocks"
)

func testConfig() *config.Config {
	return &config.Config{BcryptCost: bcrypt.MinCost}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func activeUser(t *testing.T, password string) *domain.User {
	t.Helper()
	return &domain.User{
		ID:           "user-123",
		Email:        "a@x.com",
		PasswordHash: hashPassword(t, password),
		Role:         domain.RoleEmployee,
		Department:   "HR",
		Active:       true,
	}
}

func TestUserService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewUserService(mockRepo, nil, audit.Nop{}, testConfig())

	t.Run("success lowercases email and defaults role", func(t *testing.T) {
		input := dto.RegisterInput{Email: "New@Example.COM", Password: "password123", Department: "IT"}

		mockRepo.EXPECT().GetByEmail(gomock.Any(), "new@example.com").Return(nil, nil)
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		user, err := s.Register(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, domain.RoleEmployee, user.Role)
		assert.True(t, user.Active)
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "password123", user.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		input := dto.RegisterInput{Email: "taken@example.com", Password: "password123"}

		mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).
			Return(&domain.User{ID: "existing"}, nil)

		user, err := s.Register(context.Background(), input)
		assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
		assert.Nil(t, user)
	})
}

func TestUserService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	s := service.NewUserService(mockRepo, mockTokens, audit.Nop{}, testConfig())

	user := activeUser(t, "correct")
	expiresAt := time.Now().Add(7 * 24 * time.Hour)

	mockRepo.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(user, nil)
	mockTokens.EXPECT().Generate(user.ID, user.Email, "employee").
		Return("access-token", "refresh-token", expiresAt, nil)
	mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RefreshToken) error {
			assert.Equal(t, user.ID, rt.UserID)
			assert.Equal(t, "refresh-token", rt.Token)
			assert.Equal(t, expiresAt, rt.ExpiresAt)
			assert.NotEmpty(t, rt.ID)
			return nil
		})

	out, err := s.Login(context.Background(), dto.LoginInput{Email: "A@X.com", Password: "correct"})
	require.NoError(t, err)
	assert.Equal(t, "access-token", out.AccessToken)
	assert.Equal(t, "refresh-token", out.RefreshToken)
	assert.Equal(t, user.ID, out.User.ID)
}

func TestUserService_Login_Failures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockAudit := mocks.NewMockRecorder(ctrl)
	s := service.NewUserService(mockRepo, nil, mockAudit, testConfig())

	t.Run("unknown email", func(t *testing.T) {
		mockRepo.EXPECT().GetByEmail(gomock.Any(), "ghost@x.com").Return(nil, nil)
		mockAudit.EXPECT().Record(gomock.Any(), gomock.Any())

		_, err := s.Login(context.Background(), dto.LoginInput{Email: "ghost@x.com", Password: "whatever"})
		assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(activeUser(t, "correct"), nil)
		mockAudit.EXPECT().Record(gomock.Any(), gomock.Any())

		_, err := s.Login(context.Background(), dto.LoginInput{Email: "a@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	})

	t.Run("deactivated account gets the same error", func(t *testing.T) {
		user := activeUser(t, "correct")
		user.Active = false
		mockRepo.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(user, nil)
		mockAudit.EXPECT().Record(gomock.Any(), gomock.Any())

		_, err := s.Login(context.Background(), dto.LoginInput{Email: "a@x.com", Password: "correct"})
		assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		dbErr := errors.New("db down")
		mockRepo.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(nil, dbErr)

		_, err := s.Login(context.Background(), dto.LoginInput{Email: "a@x.com", Password: "correct"})
		assert.ErrorIs(t, err, dbErr)
	})
}

func refreshFixtures(t *testing.T, ctrl *gomock.Controller) (*mocks.MockUserRepository, *mocks.MockTokenGenerator, *service.UserService) {
	t.Helper()
	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	s := service.NewUserService(mockRepo, mockTokens, audit.Nop{}, testConfig())
	return mockRepo, mockTokens, s
}

func TestUserService_Refresh_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo, mockTokens, s := refreshFixtures(t, ctrl)

	user := activeUser(t, "correct")
	record := &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    user.ID,
		Token:     "old-refresh",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	mockTokens.EXPECT().VerifyRefreshToken("old-refresh").
		Return(&service.JWTCustomClaims{UserID: user.ID, Email: user.Email}, nil)
	mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "old-refresh").Return(record, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	mockRepo.EXPECT().DeleteRefreshToken(gomock.Any(), "old-refresh").Return(true, nil)
	mockTokens.EXPECT().Generate(user.ID, user.Email, "employee").
		Return("new-access", "new-refresh", time.Now().Add(time.Hour), nil)
	mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RefreshToken) error {
			assert.Equal(t, "new-refresh", rt.Token)
			assert.NotEqual(t, record.ID, rt.ID)
			return nil
		})

	out, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "old-refresh"})
	require.NoError(t, err)
	assert.Equal(t, "new-access", out.AccessToken)
	assert.Equal(t, "new-refresh", out.RefreshToken)
}

func TestUserService_Refresh_Failures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := activeUser(t, "correct")
	claims := &service.JWTCustomClaims{UserID: user.ID, Email: user.Email}

	t.Run("bad signature", func(t *testing.T) {
		_, mockTokens, s := refreshFixtures(t, ctrl)
		mockTokens.EXPECT().VerifyRefreshToken("forged").Return(nil, autherror.ErrTokenInvalid)

		_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "forged"})
		assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	})

	t.Run("record already rotated away", func(t *testing.T) {
		mockRepo, mockTokens, s := refreshFixtures(t, ctrl)
		mockTokens.EXPECT().VerifyRefreshToken("stale").Return(claims, nil)
		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "stale").Return(nil, nil)

		_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "stale"})
		assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	})

	t.Run("record expired", func(t *testing.T) {
		mockRepo, mockTokens, s := refreshFixtures(t, ctrl)
		mockTokens.EXPECT().VerifyRefreshToken("old").Return(claims, nil)
		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "old").Return(&domain.RefreshToken{
			UserID:    user.ID,
			Token:     "old",
			ExpiresAt: time.Now().Add(-time.Minute),
		}, nil)

		_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "old"})
		assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		mockRepo, mockTokens, s := refreshFixtures(t, ctrl)
		mockTokens.EXPECT().VerifyRefreshToken("stolen").Return(claims, nil)
		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "stolen").Return(&domain.RefreshToken{
			UserID:    "someone-else",
			Token:     "stolen",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)

		_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "stolen"})
		assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	})

	t.Run("user deactivated after issue", func(t *testing.T) {
		mockRepo, mockTokens, s := refreshFixtures(t, ctrl)
		deactivated := activeUser(t, "correct")
		deactivated.Active = false

		mockTokens.EXPECT().VerifyRefreshToken("valid").Return(claims, nil)
		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "valid").Return(&domain.RefreshToken{
			UserID:    user.ID,
			Token:     "valid",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(deactivated, nil)

		_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "valid"})
		assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	})

	t.Run("lost rotation race", func(t *testing.T) {
		// Two concurrent refreshes hold the same token; the loser's delete
		// affects zero rows and must fail, never mint a second pair.
		mockRepo, mockTokens, s := refreshFixtures(t, ctrl)
		mockTokens.EXPECT().VerifyRefreshToken("contested").Return(claims, nil)
		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "contested").Return(&domain.RefreshToken{
			UserID:    user.ID,
			Token:     "contested",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		mockRepo.EXPECT().DeleteRefreshToken(gomock.Any(), "contested").Return(false, nil)

		_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "contested"})
		assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	})
}

func TestUserService_Logout_BestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewUserService(mockRepo, nil, audit.Nop{}, testConfig())

	t.Run("deletes the record", func(t *testing.T) {
		mockRepo.EXPECT().DeleteRefreshToken(gomock.Any(), "token").Return(true, nil)
		s.Logout(context.Background(), "token")
	})

	t.Run("swallows store failure", func(t *testing.T) {
		mockRepo.EXPECT().DeleteRefreshToken(gomock.Any(), "token").
			Return(false, errors.New("db down"))
		s.Logout(context.Background(), "token")
	})

	t.Run("no-op without a token", func(t *testing.T) {
		s.Logout(context.Background(), "")
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewUserService(mockRepo, nil, audit.Nop{}, testConfig())

	t.Run("success invalidates every session", func(t *testing.T) {
		user := activeUser(t, "old-password")

		mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		mockRepo.EXPECT().UpdatePassword(gomock.Any(), user.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, hash string) error {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")))
				return nil
			})
		mockRepo.EXPECT().DeleteRefreshTokensByUserID(gomock.Any(), user.ID).Return(nil)

		err := s.ChangePassword(context.Background(), user.ID, dto.ChangePasswordInput{
			CurrentPassword: "old-password",
			NewPassword:     "new-password",
		})
		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		user := activeUser(t, "old-password")
		mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

		err := s.ChangePassword(context.Background(), user.ID, dto.ChangePasswordInput{
			CurrentPassword: "not-it",
			NewPassword:     "new-password",
		})
		assert.ErrorIs(t, err, autherror.ErrInvalidCurrentPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, nil)

		err := s.ChangePassword(context.Background(), "ghost", dto.ChangePasswordInput{
			CurrentPassword: "x", NewPassword: "y",
		})
		assert.ErrorIs(t, err, autherror.ErrSubjectNotFound)
	})
}

func TestUserService_LogoutAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewUserService(mockRepo, nil, audit.Nop{}, testConfig())

	mockRepo.EXPECT().DeleteRefreshTokensByUserID(gomock.Any(), "user-123").Return(nil)
	assert.NoError(t, s.LogoutAll(context.Background(), "user-123"))

	dbErr := errors.New("db down")
	mockRepo.EXPECT().DeleteRefreshTokensByUserID(gomock.Any(), "user-123").Return(dbErr)
	assert.ErrorIs(t, s.LogoutAll(context.Background(), "user-123"), dbErr)
}

func TestUserService_SweepExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewUserService(mockRepo, nil, audit.Nop{}, testConfig())

	mockRepo.EXPECT().DeleteExpiredRefreshTokens(gomock.Any()).Return(int64(3), nil)
	s.SweepExpired(context.Background())

	// Sweep is best-effort; a failing store call must not panic.
	mockRepo.EXPECT().DeleteExpiredRefreshTokens(gomock.Any()).Return(int64(0), errors.New("db down"))
	s.SweepExpired(context.Background())
}
