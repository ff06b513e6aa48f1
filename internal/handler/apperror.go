package handler

import (
	"net/http"

	"github.com/josh-kwaku/payment-decider/internal/domain"
)

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrVersionConflict       = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Payment was modified concurrently, please retry"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive whole number of minor units"}
	ErrInvalidCommand        = &AppError{http.StatusBadRequest, "INVALID_COMMAND", "Command is missing a payment id"}

	ErrPaymentAlreadyExists     = &AppError{http.StatusUnprocessableEntity, "PAYMENT_ALREADY_EXISTS", "Payment already exists"}
	ErrPaymentNotCreated        = &AppError{http.StatusUnprocessableEntity, "PAYMENT_NOT_CREATED", "Payment has not been created"}
	ErrPaymentAlreadyCancelled  = &AppError{http.StatusUnprocessableEntity, "PAYMENT_ALREADY_CANCELLED", "Payment is already cancelled"}
	ErrPaymentCancelled         = &AppError{http.StatusUnprocessableEntity, "PAYMENT_CANCELLED", "Payment is cancelled"}
	ErrPaymentNotAuthorised     = &AppError{http.StatusUnprocessableEntity, "PAYMENT_NOT_AUTHORISED", "Payment has not been authorised"}
	ErrPaymentAlreadyAuthorised = &AppError{http.StatusUnprocessableEntity, "PAYMENT_ALREADY_AUTHORISED", "Payment is already authorised"}
	ErrPaymentNotCaptured       = &AppError{http.StatusUnprocessableEntity, "PAYMENT_NOT_CAPTURED", "Payment has not been captured"}
	ErrPaymentAlreadyCaptured   = &AppError{http.StatusUnprocessableEntity, "PAYMENT_ALREADY_CAPTURED", "Payment is already captured"}
	ErrRefundExceedsCaptured    = &AppError{http.StatusUnprocessableEntity, "REFUND_EXCEEDS_CAPTURED", "Refund exceeds the remaining captured amount"}
)

var violationErrors = map[domain.Reason]*AppError{
	domain.ReasonAlreadyExists:         ErrPaymentAlreadyExists,
	domain.ReasonNotCreated:            ErrPaymentNotCreated,
	domain.ReasonAlreadyCancelled:      ErrPaymentAlreadyCancelled,
	domain.ReasonCancelled:             ErrPaymentCancelled,
	domain.ReasonNotAuthorised:         ErrPaymentNotAuthorised,
	domain.ReasonAlreadyAuthorised:     ErrPaymentAlreadyAuthorised,
	domain.ReasonNotCaptured:           ErrPaymentNotCaptured,
	domain.ReasonAlreadyCaptured:       ErrPaymentAlreadyCaptured,
	domain.ReasonRefundExceedsCaptured: ErrRefundExceedsCaptured,
}
