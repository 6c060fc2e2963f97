package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeDuplicateEntry   = "DUPLICATE_ENTRY"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeGatewayError     = "GATEWAY_ERROR"
	ErrCodeEmptyCart        = "EMPTY_CART"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeProductInactive  = "PRODUCT_INACTIVE"
	ErrCodeCheckoutInFlight = "CHECKOUT_IN_PROGRESS"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeReceiptNotFound  = "RECEIPT_NOT_FOUND"
	ErrCodeUnconfirmed      = "PAYMENT_UNCONFIRMED"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthenticatedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthenticated, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, http.StatusInternalServerError)
}

func DuplicateEntryError(message string) *AppError {
	return NewAppError(ErrCodeDuplicateEntry, message, http.StatusConflict)
}

func GatewayError(message string) *AppError {
	return NewAppError(ErrCodeGatewayError, message, http.StatusBadGateway)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

func EmptyCartError() *AppError {
	return NewAppError(ErrCodeEmptyCart, "Cart is empty", http.StatusBadRequest)
}

func InsufficientStockError(sku string) *AppError {
	return NewAppError(ErrCodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for product %s", sku), http.StatusConflict)
}

func ProductInactiveError(sku string) *AppError {
	return NewAppError(ErrCodeProductInactive,
		fmt.Sprintf("Product %s is not available for sale", sku), http.StatusConflict)
}

func CheckoutInProgressError() *AppError {
	return NewAppError(ErrCodeCheckoutInFlight, "A checkout is already in progress", http.StatusConflict)
}

func InvalidSignatureError() *AppError {
	return NewAppError(ErrCodeInvalidSignature, "Webhook signature verification failed", http.StatusBadRequest)
}

func ReceiptNotFoundError(sessionRef string) *AppError {
	return NewAppError(ErrCodeReceiptNotFound,
		fmt.Sprintf("No receipt found for session %s", sessionRef), http.StatusNotFound)
}

// UnconfirmedError is returned when the bounded confirmation loop exhausts
// its attempts. The session ref is included so support can follow up.
func UnconfirmedError(sessionRef string) *AppError {
	return NewAppError(ErrCodeUnconfirmed,
		fmt.Sprintf("Payment could not be confirmed automatically, contact support with reference %s", sessionRef),
		http.StatusAccepted)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}
