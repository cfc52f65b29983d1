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

	ErrAccountNotFound    = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND", "No chart of accounts entry serves this role"}
	ErrAccountInactive    = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_INACTIVE", "Account is inactive"}
	ErrUnbalancedEntry    = &AppError{http.StatusUnprocessableEntity, "UNBALANCED_ENTRY", "Entry debits and credits do not balance"}
	ErrEmptyEntry         = &AppError{http.StatusUnprocessableEntity, "EMPTY_ENTRY", "Entry has no lines"}
	ErrInvalidLine        = &AppError{http.StatusUnprocessableEntity, "INVALID_LINE", "Each line must carry exactly one positive side"}
	ErrInvalidAmount      = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a nonzero number"}
	ErrDuplicateReference = &AppError{http.StatusConflict, "DUPLICATE_REFERENCE", "An entry with this reference already exists"}
	ErrEntryNotPosted     = &AppError{http.StatusUnprocessableEntity, "ENTRY_NOT_POSTED", "Entry is not in posted status"}
	ErrDeletionUnsafe     = &AppError{http.StatusUnprocessableEntity, "DELETION_UNSAFE", "Deletion blocked by the safety check; use force to override"}
	ErrVersionConflict    = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrStatementNotFound  = &AppError{http.StatusNotFound, "STATEMENT_NOT_FOUND", "No statement generated for this period"}
)
