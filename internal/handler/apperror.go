package handler

import "net/http"

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

	ErrNoAccount          = &AppError{http.StatusUnprocessableEntity, "NO_ACCOUNT", "No account exists for this resource"}
	ErrInvalidResource    = &AppError{http.StatusUnprocessableEntity, "INVALID_RESOURCE", "Resource could not be resolved"}
	ErrInsufficientCredit = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_CREDIT", "Debit would breach the credit limit"}
	ErrInvalidAmount      = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidCurrency    = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrCurrencyMismatch   = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency mismatch"}
	ErrAccountExists      = &AppError{http.StatusConflict, "ACCOUNT_EXISTS", "An account already exists for this resource"}
	ErrCreationFailed     = &AppError{http.StatusBadGateway, "CREATION_FAILED", "Account could not be created"}
	ErrLedgerWrite        = &AppError{http.StatusBadGateway, "LEDGER_WRITE_FAILED", "Ledger entry could not be written"}
	ErrGatewayUnavailable = &AppError{http.StatusBadGateway, "GATEWAY_UNAVAILABLE", "Payment gateway unavailable"}
	ErrAlreadySettled     = &AppError{http.StatusConflict, "ALREADY_SETTLED", "Payment has already been settled"}
)
