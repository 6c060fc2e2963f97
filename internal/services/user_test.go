package service_test

import (
	"testing"

	"github.com/gearnix/autoparts-api/internal/config"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/gearnix/autoparts-api/internal/repositories/mocks"
	service "github.com/gearnix/autoparts-api/internal/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func userTestConfig() *config.Config {
	cfg := testConfig()
	cfg.Security = config.Security{JWTKey: "test-signing-key", JWTExpiryHours: 24}

	return cfg
}

func setupUserService(t *testing.T) (*mocks.MockUserRepository, *mocks.MockRateLimitRepository, service.UserService) {
	t.Helper()

	userRepo := mocks.NewMockUserRepository(t)
	rateLimiter := mocks.NewMockRateLimitRepository(t)
	svc := service.NewUserService(userRepo, rateLimiter, userTestConfig())

	return userRepo, rateLimiter, svc
}

func TestRegisterUser(t *testing.T) {
	req := &models.RegisterRequest{
		Name:     "Pat Doe",
		Email:    "pat@example.com",
		Password: "s3cretpass",
	}

	t.Run("Success - role is forced to customer", func(t *testing.T) {
		// Arrange
		userRepo, _, svc := setupUserService(t)

		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(nil, repository.ErrUserNotFound)
		userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

		// Act
		user, err := svc.RegisterUser(t.Context(), req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, user.Role)
		assert.NotEqual(t, req.Password, user.Password, "password must be stored hashed")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)))
	})

	t.Run("Failure - duplicate email", func(t *testing.T) {
		// Arrange
		userRepo, _, svc := setupUserService(t)

		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(&models.User{ID: uuid.New(), Email: req.Email}, nil)

		// Act
		user, err := svc.RegisterUser(t.Context(), req)

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, appErr.Code)
		assert.Nil(t, user)
		userRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestLoginUser(t *testing.T) {
	password := "s3cretpass"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	storedUser := &models.User{
		ID:       uuid.New(),
		Name:     "Pat Doe",
		Email:    "pat@example.com",
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}

	req := &models.LoginRequest{Email: storedUser.Email, Password: password}

	t.Run("Success - token carries the user's claims", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, svc := setupUserService(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).Return(true, 4, 0, nil)
		userRepo.On("GetUserByEmail", mock.Anything, req.Email).Return(storedUser, nil)

		// Act
		resp, err := svc.LoginUser(t.Context(), req)

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Token)

		claims := &models.Claims{}
		_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, storedUser.ID, claims.UserID)
		assert.Equal(t, models.RoleCustomer, claims.Role)
	})

	t.Run("Failure - wrong password reports remaining tries", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, svc := setupUserService(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).Return(true, 3, 0, nil)
		userRepo.On("GetUserByEmail", mock.Anything, req.Email).Return(storedUser, nil)

		// Act
		resp, err := svc.LoginUser(t.Context(), &models.LoginRequest{Email: req.Email, Password: "wrong"})

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeUnauthenticated, appErr.Code)
		require.NotNil(t, resp, "the partial response carries the remaining attempt count")
		assert.False(t, resp.Success)
		assert.Equal(t, 3, resp.RemainingTries)
	})

	t.Run("Failure - unknown email looks identical to wrong password", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, svc := setupUserService(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, "nobody@example.com").Return(true, 4, 0, nil)
		userRepo.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.ErrUserNotFound)

		// Act
		resp, err := svc.LoginUser(t.Context(), &models.LoginRequest{Email: "nobody@example.com", Password: password})

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeUnauthenticated, appErr.Code)
		assert.Equal(t, "Invalid email or password", resp.Message)
	})

	t.Run("Failure - rate limited before credentials are checked", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, svc := setupUserService(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).Return(false, 0, 120, nil)

		// Act
		resp, err := svc.LoginUser(t.Context(), req)

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeTooManyRequests, appErr.Code)
		require.NotNil(t, resp)
		assert.Equal(t, 120, resp.RetryAfter)
		userRepo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestGetUserProfile(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		userRepo, _, svc := setupUserService(t)

		userRepo.On("GetUserByID", mock.Anything, userID).
			Return(&models.User{ID: userID, Email: "pat@example.com"}, nil)

		// Act
		user, err := svc.GetUserProfile(t.Context(), customerClaims(userID))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("Failure - unauthenticated", func(t *testing.T) {
		_, _, svc := setupUserService(t)

		user, err := svc.GetUserProfile(t.Context(), nil)

		require.Error(t, err)
		assert.Nil(t, user)
	})
}
