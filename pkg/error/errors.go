package error

import (
	"errors"
	"net/http"

	domainerr "github.com/vobe/authz-service/domain/error"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: "BAD_REQUEST", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Failed to verify credentials", Status: http.StatusUnauthorized}
	ErrForbidden      = &AppError{Code: "FORBIDDEN", Message: "Not enough rights", Status: http.StatusForbidden}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred", Status: http.StatusInternalServerError}
)

func NewBadRequest(message string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: message, Status: http.StatusBadRequest}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Status: http.StatusUnauthorized}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound}
}

func NewInternalServer(message string) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError}
}

// MapError converts any error into the response the HTTP layer sends. Token
// failures of every kind collapse into one 401 with a fixed message.
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var domainErr *domainerr.DomainError
	if !errors.As(err, &domainErr) {
		return ErrInternalServer
	}

	switch domainErr.Kind {
	case domainerr.KindAuthenticationFailed:
		return NewUnauthorized("Invalid credentials")
	case domainerr.KindUnauthenticated:
		return ErrUnauthorized
	case domainerr.KindForbidden:
		return ErrForbidden
	case domainerr.KindNotFound:
		if domainErr.Details != "" {
			return NewNotFound("The " + domainErr.Details + " was not found")
		}
		return ErrNotFound
	case domainerr.KindAlreadyExists:
		if domainErr.Details != "" {
			return NewBadRequest("The " + domainErr.Details + " already exists")
		}
		return NewBadRequest("Already exists")
	case domainerr.KindDuplicateGrant:
		return NewBadRequest(domainErr.Message)
	case domainerr.KindInvalidInput:
		if domainErr.Details != "" {
			return NewBadRequest(domainErr.Details)
		}
		return ErrBadRequest
	default:
		return ErrInternalServer
	}
}
