package error

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Kind is the coarse outcome reported to callers. Token decode failures all
// share KindUnauthenticated so the precise reason never leaves the process.
type Kind string

const (
	KindUnknown              Kind = "UNKNOWN"
	KindAuthenticationFailed Kind = "AUTHENTICATION_FAILED"
	KindUnauthenticated      Kind = "UNAUTHENTICATED"
	KindForbidden            Kind = "FORBIDDEN"
	KindNotFound             Kind = "NOT_FOUND"
	KindDuplicateGrant       Kind = "DUPLICATE_GRANT"
	KindAlreadyExists        Kind = "ALREADY_EXISTS"
	KindInvalidInput         Kind = "INVALID_INPUT"
)

const (
	// Authentication Errors (1xxx)
	ErrCodeAuthenticationFailed  ErrorCode = "AUTH_1001"
	ErrCodeUnauthenticated       ErrorCode = "AUTH_1002"
	ErrCodeTokenMalformed        ErrorCode = "AUTH_1003"
	ErrCodeTokenInvalidSignature ErrorCode = "AUTH_1004"
	ErrCodeTokenExpired          ErrorCode = "AUTH_1005"
	ErrCodeTokenMissingSubject   ErrorCode = "AUTH_1006"

	// Validation Errors (2xxx)
	ErrCodeInvalidInput ErrorCode = "VALID_2001"

	// Data Errors (5xxx)
	ErrCodeNotFound       ErrorCode = "DATA_5001"
	ErrCodeAlreadyExists  ErrorCode = "DATA_5002"
	ErrCodeDuplicateGrant ErrorCode = "DATA_5003"

	// Security Errors (7xxx)
	ErrCodeForbidden ErrorCode = "SEC_7001"
)

// DomainError represents a structured domain error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on code so detailed copies still satisfy errors.Is against the
// package sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrAuthenticationFailed = newSentinel(ErrCodeAuthenticationFailed, KindAuthenticationFailed, "Invalid credentials")
	ErrUnauthenticated      = newSentinel(ErrCodeUnauthenticated, KindUnauthenticated, "Failed to verify credentials")
	ErrForbidden            = newSentinel(ErrCodeForbidden, KindForbidden, "Not enough rights")
	ErrNotFound             = newSentinel(ErrCodeNotFound, KindNotFound, "Not found")
	ErrAlreadyExists        = newSentinel(ErrCodeAlreadyExists, KindAlreadyExists, "Already exists")
	ErrDuplicateGrant       = newSentinel(ErrCodeDuplicateGrant, KindDuplicateGrant, "Role already granted for this service")
	ErrInvalidInput         = newSentinel(ErrCodeInvalidInput, KindInvalidInput, "Invalid input")

	ErrTokenMalformed        = newSentinel(ErrCodeTokenMalformed, KindUnauthenticated, "Token is malformed")
	ErrTokenInvalidSignature = newSentinel(ErrCodeTokenInvalidSignature, KindUnauthenticated, "Token signature is invalid")
	ErrTokenExpired          = newSentinel(ErrCodeTokenExpired, KindUnauthenticated, "Token has expired")
	ErrTokenMissingSubject   = newSentinel(ErrCodeTokenMissingSubject, KindUnauthenticated, "Token has no subject")
)

func newSentinel(code ErrorCode, kind Kind, message string) *DomainError {
	return &DomainError{Code: code, Kind: kind, Message: message}
}

// Wrap returns a copy of sentinel carrying details and an underlying cause.
func Wrap(sentinel *DomainError, details string, cause error) *DomainError {
	return &DomainError{
		Code:    sentinel.Code,
		Kind:    sentinel.Kind,
		Message: sentinel.Message,
		Details: details,
		Cause:   cause,
	}
}

func NotFound(what string) *DomainError {
	return Wrap(ErrNotFound, what, nil)
}

func AlreadyExists(what string) *DomainError {
	return Wrap(ErrAlreadyExists, what, nil)
}

func InvalidInput(details string) *DomainError {
	return Wrap(ErrInvalidInput, details, nil)
}

// KindOf reports the kind of the outermost DomainError in err's chain.
func KindOf(err error) Kind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindUnknown
}

// ReasonOf reports the most specific code in err's chain, for internal logs.
func ReasonOf(err error) ErrorCode {
	var reason ErrorCode
	for err != nil {
		if domainErr, ok := err.(*DomainError); ok {
			reason = domainErr.Code
		}
		err = errors.Unwrap(err)
	}
	return reason
}
