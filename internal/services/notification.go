package service

import (
	"context"
	"log/slog"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	"github.com/gearnix/autoparts-api/pkg/sendgrid"
)

// NotificationService sends operational email on behalf of staff, e.g.
// back-in-stock notices or order follow-ups.
type NotificationService interface {
	SendEmail(ctx context.Context, claims *models.Claims, req *models.EmailNotificationRequest) error
}

type notificationService struct {
	email sendgrid.EmailService
}

func NewNotificationService(email sendgrid.EmailService) NotificationService {
	return &notificationService{email: email}
}

func (s *notificationService) SendEmail(ctx context.Context, claims *models.Claims, req *models.EmailNotificationRequest) error {
	logger := middleware.LoggerFromContext(ctx)

	if claims == nil {
		return appErrors.UnauthenticatedError("Authentication required")
	}

	if !claims.Role.IsStaff() {
		return appErrors.ForbiddenError("Only staff can send notifications")
	}

	if err := s.email.Send(ctx, req); err != nil {
		return appErrors.InternalError("Failed to send email").WithError(err)
	}

	logger.Info("Notification email sent",
		slog.String("recipient", req.Recipient),
		slog.String("sentBy", claims.UserID.String()))

	return nil
}
