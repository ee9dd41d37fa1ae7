package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/portalhq/portal/internal/api/domain"
	"github.com/portalhq/portal/internal/api/httperr"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/pkg/httpx"
	"github.com/portalhq/portal/pkg/jwtx"
)

type ctxKey string

const ctxKeyUser ctxKey = "portal.user"

// userFromContext returns the user loaded by AuthnMiddleware.
func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.User)
	return u, ok
}

// APIKeyMiddleware rejects requests that do not carry the shared x-api-key
// header. An empty configured key disables the check.
func APIKeyMiddleware(apiKey string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				provided := r.Header.Get("x-api-key")
				if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
					httperr.ErrInvalidAPIKey.WriteError(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthnMiddleware verifies the bearer token and re-loads the user from the
// database, so revoked or deactivated accounts are rejected even while their
// tokens are still cryptographically valid.
func AuthnMiddleware(signer *jwtx.HS256, st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httperr.ErrTokenMissing.WriteError(w)
				return
			}

			claims, err := signer.Verify(token)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpired) {
					httperr.ErrTokenExpired.WriteError(w)
					return
				}
				httperr.ErrTokenInvalid.WriteError(w)
				return
			}

			u, err := st.Users().GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					httperr.ErrUserNotFoundInToken.WriteError(w)
					return
				}
				httperr.ErrInternal.WriteError(w)
				return
			}
			if !u.IsActive {
				httperr.ErrUserInactiveInToken.WriteError(w)
				return
			}

			ctx := context.WithValue(r.Context(), httpx.CtxKeyUserID, u.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyClaims, claims)
			ctx = context.WithValue(ctx, ctxKeyUser, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows only users with the ADMIN role through. Must run after
// AuthnMiddleware.
func RequireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := userFromContext(r.Context())
			if !ok {
				httperr.ErrTokenMissing.WriteError(w)
				return
			}
			if u.Role != domain.RoleAdmin {
				httperr.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
