package http

import (
	"net/http"

	"github.com/portalhq/portal/internal/api/httperr"
	"github.com/portalhq/portal/internal/api/service"
	"github.com/portalhq/portal/pkg/httpx"
)

// AuthHandler covers the login challenge flow and token refresh.
type AuthHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login. Valid credentials open a
// verification challenge; the code is delivered out of band.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		httperr.ErrInvalidRequest.WithDetails("email and password are required").WriteError(w)
		return
	}

	challengeID, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"challengeId": challengeID,
	})
}

type verifyOTPRequest struct {
	ChallengeID int64  `json:"challengeId"`
	Code        string `json:"code"`
	RememberMe  bool   `json:"rememberMe"`
}

// HandleVerifyOTP handles POST /auth/otp/verify.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.ChallengeID <= 0 || req.Code == "" {
		httperr.ErrInvalidRequest.WithDetails("challengeId and code are required").WriteError(w)
		return
	}

	result, err := h.AuthService.VerifyOTP(r.Context(), req.ChallengeID, req.Code, req.RememberMe)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"accessToken":  result.AccessToken.Token,
		"refreshToken": result.RefreshToken.Token,
	})
}

type resendOTPRequest struct {
	ChallengeID int64 `json:"challengeId"`
}

// HandleResendOTP handles POST /auth/otp/resend.
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.ChallengeID <= 0 {
		httperr.ErrInvalidRequest.WithDetails("challengeId is required").WriteError(w)
		return
	}

	if err := h.AuthService.ResendOTP(r.Context(), req.ChallengeID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "verification code sent",
	})
}

type refreshRequest struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// HandleRefresh handles POST /auth/refresh-token.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.Token == "" || req.UserID == "" {
		httperr.ErrInvalidRequest.WithDetails("token and userId are required").WriteError(w)
		return
	}

	access, err := h.AuthService.Refresh(r.Context(), req.Token, req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"token": access.Token,
	})
}
