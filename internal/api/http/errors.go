package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/portalhq/portal/internal/api/httperr"
	"github.com/portalhq/portal/internal/api/service"
	"github.com/portalhq/portal/pkg/httpx"
	"github.com/portalhq/portal/pkg/slogx"
)

// writeServiceError translates service sentinel errors into their HTTP
// representations. Anything unrecognized is logged and reported as a 500
// without leaking internals.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *httperr.Error
	if errors.As(err, &httpErr) {
		httpErr.WriteError(w)
		return
	}

	if mapped := mapServiceError(err); mapped != nil {
		mapped.WriteError(w)
		return
	}

	slogx.FromContext(r.Context()).Error("request failed",
		slog.Any("error", err),
		slog.String("path", r.URL.Path),
	)
	httperr.ErrInternal.WriteError(w)
}

func mapServiceError(err error) *httperr.Error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return httperr.ErrInvalidCredentials
	case errors.Is(err, service.ErrAccountDisabled):
		return httperr.ErrAccountDisabled
	case errors.Is(err, service.ErrCodeNotFound):
		return httperr.ErrVerificationNotFound
	case errors.Is(err, service.ErrCodeAlreadyUsed):
		return httperr.ErrVerificationAlreadyUsed
	case errors.Is(err, service.ErrCodeExpired):
		return httperr.ErrVerificationExpired
	case errors.Is(err, service.ErrInvalidCode):
		return httperr.ErrVerificationInvalid
	case errors.Is(err, service.ErrTooManyAttempts):
		return httperr.ErrTooManyAttempts
	case errors.Is(err, service.ErrResendCooldown):
		return httperr.ErrResendCooldown
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return httperr.ErrInvalidRefreshToken
	case errors.Is(err, service.ErrUserInactiveOrMissing):
		return httperr.ErrUserInactiveOrNotFound
	case errors.Is(err, service.ErrResetTokenInvalid):
		return httperr.ErrResetTokenInvalid
	case errors.Is(err, service.ErrPasswordMismatch):
		return httperr.ErrPasswordMismatch
	case errors.Is(err, service.ErrUserNotFound):
		return httperr.ErrUserNotFound
	case errors.Is(err, service.ErrEmailInUse):
		return httperr.ErrEmailAlreadyInUse
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidPasswordConfig):
		return httperr.ErrInvalidRequest.WithDetails(err.Error())
	case errors.Is(err, service.ErrSelfRoleChange):
		return httperr.ErrSelfRoleChange
	case errors.Is(err, service.ErrSelfStatusChange):
		return httperr.ErrSelfStatusChange
	default:
		return nil
	}
}

// writeSuccess writes the standard success envelope: the payload fields plus
// "status": true.
func writeSuccess(w http.ResponseWriter, statusCode int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["status"] = true
	httpx.WriteJSON(w, statusCode, payload)
}
