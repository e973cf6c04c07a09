package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/service"
	"github.com/aussiebroadwan/keygate/internal/keygate/store"
	"github.com/aussiebroadwan/keygate/pkg/httpx"
	"github.com/aussiebroadwan/keygate/pkg/slogx"
)

// RateLimits selects the limiter profile per route group.
type RateLimits struct {
	Login  httpx.RateLimitConfig
	Authed httpx.RateLimitConfig
	Public httpx.RateLimitConfig
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Login:  httpx.StrictLimit,
		Authed: httpx.ModerateLimit,
		Public: httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       RateLimits

	store          store.Store
	AccountService *service.AccountService
	Guard          *service.Guard
	VerificationOn bool
}

func NewRouter(buildVersion string, st store.Store, limits RateLimits, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		limits:       limits,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerPreferences()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	// POST /v1/users - strict by IP, account creation is a spam target
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(&RegisterHandler{Accounts: r.AccountService},
			httpx.RateLimitByIP(r.limits.Login),
		),
	)

	// POST /v1/login - strict by IP + username, covers password and OTP guessing
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(&LoginHandler{Accounts: r.AccountService, Guard: r.Guard},
			httpx.RateLimitByIPAndFormField(r.limits.Login, "username"),
		),
	)

	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(&LogoutHandler{Accounts: r.AccountService},
			httpx.AuthnMiddleware(r.AccountService),
			httpx.RateLimitByUser(r.limits.Authed),
		),
	)
}

func (r *Router) registerPreferences() {
	h := &PreferencesHandler{Guard: r.Guard}

	r.Mux.Handle("GET /v1/preferences",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.AccountService),
			httpx.RateLimitByUser(r.limits.Authed),
		),
	)
	r.Mux.Handle("POST /v1/preferences",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.AuthnMiddleware(r.AccountService),
			httpx.RateLimitByUser(r.limits.Authed),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.VerificationOn),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}
