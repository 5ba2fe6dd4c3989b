package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/internal/auth/store"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
	"github.com/ledgerdash/ledgerdash/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	cookies  CookieConfig
	debugTok bool

	Sessions *service.SessionService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	cookies CookieConfig,
	exposeDebugToken bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		cookies:      cookies,
		debugTok:     exposeDebugToken,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential-bearing endpoints get the strict limit; brute force on
	// passwords and tokens is the main threat here.
	r.Mux.Handle("POST /api/auth/signup",
		httpx.Chain(&SignupHandler{Sessions: r.Sessions, Cookies: r.cookies, ExposeDebugToken: r.debugTok},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(&LoginHandler{Sessions: r.Sessions, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Refresh runs on every session renewal, so it gets the moderate limit.
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(&RefreshHandler{Sessions: r.Sessions, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(&LogoutHandler{Sessions: r.Sessions, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/password/reset-request",
		httpx.Chain(&ResetRequestHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/password/reset",
		httpx.Chain(&ResetPasswordHandler{Sessions: r.Sessions, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/email/verify",
		httpx.Chain(&VerifyEmailHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/email/resend",
		httpx.Chain(&ResendVerificationHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
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
