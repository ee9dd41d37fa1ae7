package http

import (
	"net/http"

	"github.com/portalhq/portal/internal/api/httperr"
	"github.com/portalhq/portal/internal/api/service"
	"github.com/portalhq/portal/pkg/httpx"
)

// PasswordHandler covers the forgot/validate/reset password flow.
type PasswordHandler struct {
	ResetService *service.PasswordResetService
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgot handles POST /auth/password/forgot. The response is the same
// whether or not the email is registered.
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.Email == "" {
		httperr.ErrInvalidRequest.WithDetails("email is required").WriteError(w)
		return
	}

	if err := h.ResetService.Forgot(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]any{
		"message": "if the email is registered, a reset link has been sent",
	})
}

// HandleValidate handles GET /auth/password/validate?token=... It reports
// whether the token can still be redeemed, without consuming it.
func (h *PasswordHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperr.ErrInvalidRequest.WithDetails("token is required").WriteError(w)
		return
	}

	if err := h.ResetService.ValidateToken(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"valid": true,
	})
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleReset handles POST /auth/password/reset.
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httperr.ErrInvalidRequest.WithDetails("token and newPassword are required").WriteError(w)
		return
	}

	if err := h.ResetService.Reset(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "password updated",
	})
}
