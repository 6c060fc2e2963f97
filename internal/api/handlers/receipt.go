package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	service "github.com/gearnix/autoparts-api/internal/services"
	"github.com/gearnix/autoparts-api/internal/utils"
	"github.com/gearnix/autoparts-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReceiptHandler struct {
	receiptService service.ReceiptService
	validator      *validator.Validate
}

func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService, validator: validator.New()}
}

func (h *ReceiptHandler) GetReceipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid receipt ID"))

			return
		}

		receipt, err := h.receiptService.GetReceipt(r.Context(), claims, id)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, receipt)
	}
}

func (h *ReceiptHandler) GetReceiptBySessionRef() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())

		sessionRef := r.PathValue("ref")
		if sessionRef == "" {
			response.Error(w, appErrors.BadRequestError("Session reference is required"))

			return
		}

		receipt, err := h.receiptService.GetReceiptBySessionRef(r.Context(), claims, sessionRef)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, receipt)
	}
}

func (h *ReceiptHandler) ListReceipts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		receipts, total, err := h.receiptService.ListReceipts(r.Context(), claims, page, pageSize)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     receipts,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

func (h *ReceiptHandler) MarkDelivered() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		claims := middleware.ClaimsFromContext(r.Context())

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid receipt ID"))

			return
		}

		req := models.MarkDeliveredRequest{}
		if r.ContentLength > 0 {
			if !utils.ParseAndValidate(r, w, &req, h.validator) {
				return
			}
		}

		receipt, err := h.receiptService.MarkDelivered(r.Context(), claims, id, &req)
		if err != nil {
			logger.Error("Failed to mark receipt delivered",
				slog.String("receiptId", id.String()), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Receipt marked delivered", slog.String("receiptId", id.String()))
		response.Success(w, http.StatusOK, receipt)
	}
}
