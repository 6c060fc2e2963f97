package handlers

import (
	"io"
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

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	reconciler      service.ReconcilerService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService, reconciler service.ReconcilerService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		reconciler:      reconciler,
		validator:       validator.New(),
	}
}

func (h *CheckoutHandler) CheckoutCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		claims := middleware.ClaimsFromContext(r.Context())

		// The body is optional; clients may rely on the configured
		// success and cancel URLs.
		req := models.CheckoutCardRequest{}
		if r.ContentLength > 0 {
			if !utils.ParseAndValidate(r, w, &req, h.validator) {
				return
			}
		}

		result, err := h.checkoutService.CheckoutCard(r.Context(), claims, &req)
		if err != nil {
			logger.Error("Card checkout failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, result)
	}
}

func (h *CheckoutHandler) CheckoutCash() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		claims := middleware.ClaimsFromContext(r.Context())

		receipt, err := h.checkoutService.CheckoutCash(r.Context(), claims)
		if err != nil {
			logger.Error("Cash checkout failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, receipt)
	}
}

// ConfirmSession is the client-driven confirmation for card payments whose
// webhook has not landed yet. An exhausted poll returns 202 with the
// session ref so the client can tell the user to check back later.
func (h *CheckoutHandler) ConfirmSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		claims := middleware.ClaimsFromContext(r.Context())

		sessionRef := r.PathValue("ref")
		if sessionRef == "" {
			response.Error(w, appErrors.BadRequestError("Session reference is required"))

			return
		}

		result, err := h.reconciler.ConfirmWithRetry(r.Context(), claims, sessionRef)
		if err != nil {
			if appErr, ok := appErrors.IsAppError(err); ok && appErr.Code == appErrors.ErrCodeUnconfirmed {
				response.WriteJson(w, appErr.StatusCode, response.APIResponse{
					Success: false,
					Data: models.ConfirmResponse{
						Confirmed:  false,
						SessionRef: sessionRef,
						Message:    appErr.Message,
					},
				})

				return
			}

			logger.Error("Session confirmation failed",
				slog.String("sessionRef", sessionRef), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, result)
	}
}

// HandleWebhook receives gateway deliveries. It is unauthenticated; trust
// comes from the signature over the raw body.
func (h *CheckoutHandler) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("Failed to read webhook body", slog.String("error", err.Error()))
			response.Error(w, appErrors.BadRequestError("Failed to read request body"))

			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			logger.Warn("Webhook without signature header")
			response.Error(w, appErrors.InvalidSignatureError())

			return
		}

		if err := h.reconciler.ProcessWebhook(r.Context(), payload, signature); err != nil {
			logger.Error("Webhook processing failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"received": true})
	}
}
