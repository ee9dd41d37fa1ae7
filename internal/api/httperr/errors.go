// Package httperr defines the closed set of API errors the service returns.
// Handlers map service failures onto these and serialize them verbatim, so
// clients get stable machine-readable codes to branch on.
package httperr

import (
	"fmt"
	"net/http"

	"github.com/portalhq/portal/pkg/httpx"
)

// Stable machine-readable error codes.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDisabled    = "ACCOUNT_DISABLED"

	CodeVerificationNotFound    = "VERIFICATION_CODE_NOT_FOUND"
	CodeVerificationExpired     = "VERIFICATION_CODE_EXPIRED"
	CodeVerificationAlreadyUsed = "VERIFICATION_CODE_ALREADY_USED"
	CodeVerificationInvalid     = "INVALID_VERIFICATION_CODE"
	CodeTooManyAttempts         = "TOO_MANY_ATTEMPTS"
	CodeResendCooldown          = "RESEND_COOLDOWN"

	CodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	CodePasswordMismatch  = "PASSWORDS_DO_NOT_MATCH"

	CodeInvalidRefreshToken    = "INVALID_REFRESH_TOKEN"
	CodeUserInactiveOrNotFound = "USER_INACTIVE_OR_NOT_FOUND"

	CodeTokenMissing        = "TOKEN_MISSING"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeUserNotFoundInToken = "USER_NOT_FOUND_IN_TOKEN"
	CodeUserInactiveInToken = "USER_INACTIVE_IN_TOKEN"
	CodeInvalidAPIKey       = "INVALID_API_KEY"

	CodeForbidden           = "FORBIDDEN"
	CodeSelfRoleChange      = "SELF_ROLE_CHANGE"
	CodeSelfStatusChange    = "SELF_STATUS_CHANGE"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeEmailAlreadyInUse   = "EMAIL_ALREADY_IN_USE"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// Error is a typed API error carrying the HTTP status and machine code the
// boundary layer serializes. It implements the error interface so services
// can return it directly and handlers can errors.As it back out.
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the stable machine-readable code clients branch on
	Code string `json:"code"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Details optionally carries extra context safe to show clients
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError serializes the error in the API envelope:
// {"status":false,"message":...,"code":...,"details":...}
func (e *Error) WriteError(w http.ResponseWriter) {
	body := struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
		Details string `json:"details,omitempty"`
	}{
		Status:  false,
		Message: e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
	httpx.WriteJSON(w, e.StatusCode, body)
}

// WithDetails returns a copy of the error carrying extra client-safe detail.
func (e *Error) WithDetails(details string) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// New creates a custom typed error outside the predefined set.
func New(statusCode int, code, message string) *Error {
	return &Error{StatusCode: statusCode, Code: code, Message: message}
}

// Predefined errors, one per failure the API contract names.
var (
	ErrInvalidRequest = &Error{
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidRequest,
		Message:    "the request is malformed or missing required fields",
	}

	ErrInvalidCredentials = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidCredentials,
		Message:    "invalid credentials",
	}

	ErrAccountDisabled = &Error{
		StatusCode: http.StatusForbidden,
		Code:       CodeAccountDisabled,
		Message:    "account is disabled, please contact support",
	}

	ErrVerificationNotFound = &Error{
		StatusCode: http.StatusNotFound,
		Code:       CodeVerificationNotFound,
		Message:    "verification code not found",
	}

	ErrVerificationExpired = &Error{
		StatusCode: http.StatusGone,
		Code:       CodeVerificationExpired,
		Message:    "verification code has expired",
	}

	ErrVerificationAlreadyUsed = &Error{
		StatusCode: http.StatusGone,
		Code:       CodeVerificationAlreadyUsed,
		Message:    "verification code has already been used",
	}

	ErrVerificationInvalid = &Error{
		StatusCode: http.StatusBadRequest,
		Code:       CodeVerificationInvalid,
		Message:    "incorrect verification code",
	}

	ErrTooManyAttempts = &Error{
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeTooManyAttempts,
		Message:    "too many invalid attempts, request a new code",
	}

	ErrResendCooldown = &Error{
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeResendCooldown,
		Message:    "wait 60 seconds before requesting a new code",
	}

	ErrResetTokenInvalid = &Error{
		StatusCode: http.StatusGone,
		Code:       CodeResetTokenInvalid,
		Message:    "password reset token is invalid or expired",
	}

	ErrPasswordMismatch = &Error{
		StatusCode: http.StatusBadRequest,
		Code:       CodePasswordMismatch,
		Message:    "passwords do not match",
	}

	ErrInvalidRefreshToken = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidRefreshToken,
		Message:    "invalid refresh token",
	}

	ErrUserInactiveOrNotFound = &Error{
		StatusCode: http.StatusForbidden,
		Code:       CodeUserInactiveOrNotFound,
		Message:    "user is inactive or no longer exists",
	}

	ErrTokenMissing = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeTokenMissing,
		Message:    "no bearer token provided",
	}

	ErrTokenExpired = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeTokenExpired,
		Message:    "token has expired",
	}

	ErrTokenInvalid = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeTokenInvalid,
		Message:    "token is invalid or malformed",
	}

	ErrUserNotFoundInToken = &Error{
		StatusCode: http.StatusNotFound,
		Code:       CodeUserNotFoundInToken,
		Message:    "user from token no longer exists",
	}

	ErrUserInactiveInToken = &Error{
		StatusCode: http.StatusForbidden,
		Code:       CodeUserInactiveInToken,
		Message:    "user from token is inactive",
	}

	ErrInvalidAPIKey = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidAPIKey,
		Message:    "invalid API key",
	}

	ErrForbidden = &Error{
		StatusCode: http.StatusForbidden,
		Code:       CodeForbidden,
		Message:    "you do not have permission to perform this action",
	}

	ErrSelfRoleChange = &Error{
		StatusCode: http.StatusBadRequest,
		Code:       CodeSelfRoleChange,
		Message:    "you cannot change your own role",
	}

	ErrSelfStatusChange = &Error{
		StatusCode: http.StatusBadRequest,
		Code:       CodeSelfStatusChange,
		Message:    "you cannot change your own account status",
	}

	ErrUserNotFound = &Error{
		StatusCode: http.StatusNotFound,
		Code:       CodeUserNotFound,
		Message:    "user not found",
	}

	ErrEmailAlreadyInUse = &Error{
		StatusCode: http.StatusConflict,
		Code:       CodeEmailAlreadyInUse,
		Message:    "email is already in use",
	}

	ErrPayloadTooLarge = &Error{
		StatusCode: http.StatusRequestEntityTooLarge,
		Code:       CodePayloadTooLarge,
		Message:    "uploaded file exceeds the size limit",
	}

	ErrInternal = &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalServerError,
		Message:    "internal server error",
	}
)
