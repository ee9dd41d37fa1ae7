package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/portalhq/portal/internal/api/objstore"
	"github.com/portalhq/portal/internal/api/service"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/pkg/httpx"
	"github.com/portalhq/portal/pkg/jwtx"
	"github.com/portalhq/portal/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.HS256
	apiKey       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService  *service.AuthService
	ResetService *service.PasswordResetService
	UserService  *service.UserService
	Uploader     objstore.Uploader
}

func NewRouter(
	signer *jwtx.HS256,
	apiKey, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		apiKey:       apiKey,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPassword()
	r.registerUsers()
	r.registerFiles()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}
	me := &MeHandler{}

	// Credential and code guessing endpoints get the strict limit, keyed by
	// IP since the caller is unauthenticated.
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyOTP),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/otp/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResendOTP),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(me.HandleMe),
			APIKeyMiddleware(r.apiKey),
			AuthnMiddleware(r.signer, r.store),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{ResetService: r.ResetService}

	r.Mux.Handle("POST /auth/password/forgot",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /auth/password/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /auth/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			APIKeyMiddleware(r.apiKey),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			APIKeyMiddleware(r.apiKey),
			AuthnMiddleware(r.signer, r.store),
			RequireAdmin(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /users", secured(h.HandleCreate))
	r.Mux.Handle("GET /users", secured(h.HandleList))
	r.Mux.Handle("POST /users/{id}/edit", secured(h.HandleEdit))
	r.Mux.Handle("PATCH /users/{id}/role", secured(h.HandleUpdateRole))
	r.Mux.Handle("PATCH /users/{id}/status", secured(h.HandleUpdateStatus))
}

func (r *Router) registerFiles() {
	h := &FilesHandler{Uploader: r.Uploader}

	r.Mux.Handle("POST /files",
		httpx.Chain(http.HandlerFunc(h.HandleUpload),
			APIKeyMiddleware(r.apiKey),
			AuthnMiddleware(r.signer, r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health probes skip the API key so orchestrators can poll them.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
