package http

import (
	"net/http"

	"github.com/portalhq/portal/internal/api/httperr"
)

// MeHandler returns the authenticated user's profile.
type MeHandler struct{}

// HandleMe handles GET /auth/me. The user was already loaded and
// liveness-checked by AuthnMiddleware.
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		httperr.ErrTokenMissing.WriteError(w)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user": u.Public(),
	})
}
