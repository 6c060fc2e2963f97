package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	service "github.com/gearnix/autoparts-api/internal/services"
	"github.com/gearnix/autoparts-api/internal/utils"
	"github.com/gearnix/autoparts-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserService
	cartService service.CartService
	validator   *validator.Validate
}

func NewUserHandler(userService service.UserService, cartService service.CartService) *UserHandler {
	return &UserHandler{userService: userService, cartService: cartService, validator: validator.New()}
}

func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		user, err := h.userService.RegisterUser(r.Context(), &req)
		if err != nil {
			logger.Error("Registration failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, user)
	}
}

func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		result, err := h.userService.LoginUser(r.Context(), &req)
		if err != nil {
			// Failed logins carry a partial body: remaining tries or the
			// retry-after window for rate limited callers.
			if result != nil {
				if appErr, ok := appErrors.IsAppError(err); ok {
					response.WriteJson(w, appErr.StatusCode, result)

					return
				}
			}

			logger.Error("Login failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, result)
	}
}

func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		claims := middleware.ClaimsFromContext(r.Context())

		user, err := h.userService.GetUserProfile(r.Context(), claims)
		if err != nil {
			logger.Error("Failed to load profile", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		// Login is the client's cue to rehydrate its cart; the profile
		// endpoint bundles the durable cart so one round trip suffices.
		cart, err := h.cartService.Hydrate(r.Context(), user.ID)
		if err != nil {
			logger.Error("Failed to hydrate cart", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]any{
			"user": user,
			"cart": cart,
		})
	}
}
