package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	"github.com/gearnix/autoparts-api/internal/models"
	service "github.com/gearnix/autoparts-api/internal/services"
	"github.com/gearnix/autoparts-api/internal/utils"
	"github.com/gearnix/autoparts-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	validator           *validator.Validate
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, validator: validator.New()}
}

func (h *NotificationHandler) SendEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		claims := middleware.ClaimsFromContext(r.Context())

		var req models.EmailNotificationRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if err := h.notificationService.SendEmail(r.Context(), claims, &req); err != nil {
			logger.Error("Failed to send notification",
				slog.String("recipient", req.Recipient), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"sent": true})
	}
}
