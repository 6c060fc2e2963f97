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
)

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

// requireAdmin gates the catalog mutations. Counter staff can sell but
// only admins change the catalog.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, appErrors.UnauthenticatedError("Authentication required"))

		return false
	}

	if claims.Role != models.RoleAdmin {
		response.Error(w, appErrors.ForbiddenError("Admin access required"))

		return false
	}

	return true
}

func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		if !requireAdmin(w, r) {
			return
		}

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.productService.CreateProduct(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create product",
				slog.String("sku", req.SKU), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Product created", slog.String("sku", product.SKU))
		response.Success(w, http.StatusCreated, product)
	}
}

func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := r.PathValue("sku")
		if sku == "" {
			response.Error(w, appErrors.BadRequestError("Product SKU is required"))

			return
		}

		product, err := h.productService.GetProductBySKU(r.Context(), sku)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		if !requireAdmin(w, r) {
			return
		}

		sku := r.PathValue("sku")
		if sku == "" {
			response.Error(w, appErrors.BadRequestError("Product SKU is required"))

			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.productService.UpdateProduct(r.Context(), sku, &req)
		if err != nil {
			logger.Error("Failed to update product",
				slog.String("sku", sku), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Product updated", slog.String("sku", sku))
		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		products, total, err := h.productService.ListProducts(r.Context(), page, pageSize)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}
