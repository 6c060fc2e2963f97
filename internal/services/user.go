package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	"github.com/gearnix/autoparts-api/internal/config"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	RegisterUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	LoginUser(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, claims *models.Claims) (*models.User, error)
}

type userService struct {
	repo        repository.UserRepository
	rateLimiter repository.RateLimitRepository
	cfg         *config.Config
}

func NewUserService(repo repository.UserRepository, rateLimiter repository.RateLimitRepository, cfg *config.Config) UserService {
	return &userService{repo: repo, rateLimiter: rateLimiter, cfg: cfg}
}

func (s *userService) RegisterUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	logger := middleware.LoggerFromContext(ctx)

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, appErrors.DatabaseError("Failed to check for existing user").WithError(err)
	}

	if existing != nil {
		return nil, appErrors.DuplicateEntryError("Email is already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.InternalError("Failed to process the password").WithError(err)
	}

	// Accounts created through the public API are always customers. Staff
	// and admin roles are granted out of band.
	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     models.RoleCustomer,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, appErrors.DatabaseError("Failed to create user").WithError(err)
	}

	logger.Info("User registered", slog.String("userId", user.ID.String()))

	return user, nil
}

func (s *userService) LoginUser(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	logger := middleware.LoggerFromContext(ctx)

	allowed, remaining, retryAfter, err := s.rateLimiter.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, appErrors.InternalError("Failed to check rate limit").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			RetryAfter: retryAfter,
			Message:    "Too many login attempts, please try again later",
		}, appErrors.TooManyRequestsError("Too many login attempts")
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &models.LoginResponse{
				Success:        false,
				RemainingTries: remaining,
				Message:        "Invalid email or password",
			}, appErrors.UnauthenticatedError("Invalid email or password")
		}

		return nil, appErrors.DatabaseError("Failed to load user").WithError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("Login failed, wrong password", slog.String("userId", user.ID.String()))

		return &models.LoginResponse{
			Success:        false,
			RemainingTries: remaining,
			Message:        "Invalid email or password",
		}, appErrors.UnauthenticatedError("Invalid email or password")
	}

	expiry := time.Duration(s.cfg.Security.JWTExpiryHours) * time.Hour

	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(s.cfg.Security.JWTKey))
	if err != nil {
		return nil, appErrors.InternalError("Failed to generate the token").WithError(err)
	}

	logger.Info("User logged in", slog.String("userId", user.ID.String()))

	return &models.LoginResponse{
		Success:   true,
		Token:     signedToken,
		ExpiresIn: int(expiry.Seconds()),
	}, nil
}

func (s *userService) GetUserProfile(ctx context.Context, claims *models.Claims) (*models.User, error) {
	if claims == nil {
		return nil, appErrors.UnauthenticatedError("Authentication required")
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.NotFoundError("User not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load user").WithError(err)
	}

	return user, nil
}
