package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for the trust core taxonomy
const (
	// Credential presence / structure (1xxx)
	ErrCodeMissingCredential   ErrorCode = "TRUST_1001"
	ErrCodeMalformedCredential ErrorCode = "TRUST_1002"

	// Cryptographic verification (2xxx)
	ErrCodeInvalidSignature ErrorCode = "TRUST_2001"
	ErrCodeExpired          ErrorCode = "TRUST_2002"
	ErrCodeWrongTarget      ErrorCode = "TRUST_2003"
	ErrCodeWrongTokenType   ErrorCode = "TRUST_2004"
	ErrCodeReplayedNonce    ErrorCode = "TRUST_2005"

	// Authorization (3xxx)
	ErrCodeUnknownPrincipal       ErrorCode = "TRUST_3001"
	ErrCodeInsufficientPermission ErrorCode = "TRUST_3002"

	// CSRF (4xxx)
	ErrCodeCSRFMismatch ErrorCode = "TRUST_4001"

	// Configuration (5xxx)
	ErrCodeConfigurationError ErrorCode = "TRUST_5001"

	// ErrCodeCredentialRejected is the only code the boundary exposes
	// for a presented-but-rejected credential. The verification code
	// that names the actual failure stays in the security logs.
	ErrCodeCredentialRejected ErrorCode = "TRUST_2000"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Common error constructors. Details are for internal logs only; the
// messages stay generic so callers never leak the verification reason.

func ErrMissingCredential(details string) *AppError {
	return NewAppError(ErrCodeMissingCredential, "Authentication required", details, nil)
}

func ErrMalformedCredential(details string) *AppError {
	return NewAppError(ErrCodeMalformedCredential, "Invalid or expired credential", details, nil)
}

func ErrInvalidSignature(details string) *AppError {
	return NewAppError(ErrCodeInvalidSignature, "Invalid or expired credential", details, nil)
}

func ErrExpired(details string) *AppError {
	return NewAppError(ErrCodeExpired, "Invalid or expired credential", details, nil)
}

func ErrWrongTarget(details string) *AppError {
	return NewAppError(ErrCodeWrongTarget, "Invalid or expired credential", details, nil)
}

func ErrWrongTokenType(details string) *AppError {
	return NewAppError(ErrCodeWrongTokenType, "Invalid or expired credential", details, nil)
}

func ErrReplayedNonce(details string) *AppError {
	return NewAppError(ErrCodeReplayedNonce, "Invalid or expired credential", details, nil)
}

func ErrUnknownPrincipal(details string) *AppError {
	return NewAppError(ErrCodeUnknownPrincipal, "Invalid or expired credential", details, nil)
}

func ErrInsufficientPermission(permission string) *AppError {
	return NewAppError(ErrCodeInsufficientPermission, "Insufficient permission", fmt.Sprintf("Permission: %s", permission), nil)
}

func ErrCSRFMismatch(details string) *AppError {
	return NewAppError(ErrCodeCSRFMismatch, "CSRF token missing or invalid", details, nil)
}

func ErrConfigurationError(config string) *AppError {
	return NewAppError(ErrCodeConfigurationError, "Configuration error", fmt.Sprintf("Config: %s", config), nil)
}

// ClientCode returns the code safe to put on the wire. Every failure
// class of a presented credential collapses into a single code so the
// response never reveals how verification failed.
func (e *AppError) ClientCode() ErrorCode {
	switch e.Code {
	case ErrCodeMalformedCredential, ErrCodeInvalidSignature, ErrCodeExpired,
		ErrCodeWrongTarget, ErrCodeWrongTokenType, ErrCodeReplayedNonce,
		ErrCodeUnknownPrincipal:
		return ErrCodeCredentialRejected
	}
	return e.Code
}

// GetHTTPStatusCode maps an error to the HTTP status the boundary
// should terminate with: 401 when no credential was presented, 403 when
// a credential was presented and rejected or lacks permission.
func GetHTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrCodeMissingCredential:
			return http.StatusUnauthorized
		case ErrCodeConfigurationError:
			return http.StatusInternalServerError
		default:
			return http.StatusForbidden
		}
	}
	return http.StatusInternalServerError
}
