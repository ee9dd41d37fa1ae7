package http

import (
	"net/http"
	"strconv"

	"github.com/portalhq/portal/internal/api/httperr"
	"github.com/portalhq/portal/internal/api/service"
	"github.com/portalhq/portal/pkg/httpx"
)

// UsersHandler covers account administration. Every route is admin-only.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleCreate handles POST /users.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.Name == "" || req.Email == "" || req.Role == "" {
		httperr.ErrInvalidRequest.WithDetails("name, email and role are required").WriteError(w)
		return
	}

	result, err := h.UserService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := map[string]any{"user": result.User}
	if result.ResetLink != "" {
		payload["resetLink"] = result.ResetLink
	}
	writeSuccess(w, http.StatusCreated, payload)
}

// HandleList handles GET /users?page=&limit=.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.UserService.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

// HandleEdit handles POST /users/{id}/edit. Only the fields present in the
// body are applied.
func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actorID, _ := httpx.UserIDFromContext(r.Context())
	userID := r.PathValue("id")

	var req service.UpdateUserInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}

	result, err := h.UserService.Update(r.Context(), actorID, userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := map[string]any{"user": result.User}
	if result.ResetLink != "" {
		payload["resetLink"] = result.ResetLink
	}
	writeSuccess(w, http.StatusOK, payload)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateRole handles PATCH /users/{id}/role.
func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, _ := httpx.UserIDFromContext(r.Context())
	userID := r.PathValue("id")

	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.Role == "" {
		httperr.ErrInvalidRequest.WithDetails("role is required").WriteError(w)
		return
	}

	u, err := h.UserService.UpdateRole(r.Context(), actorID, userID, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user": u.Public(),
	})
}

type updateStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// HandleUpdateStatus handles PATCH /users/{id}/status.
func (h *UsersHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, _ := httpx.UserIDFromContext(r.Context())
	userID := r.PathValue("id")

	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httperr.ErrInvalidRequest.WithDetails("invalid JSON body").WriteError(w)
		return
	}
	if req.IsActive == nil {
		httperr.ErrInvalidRequest.WithDetails("isActive is required").WriteError(w)
		return
	}

	u, err := h.UserService.SetStatus(r.Context(), actorID, userID, *req.IsActive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user": u.Public(),
	})
}
