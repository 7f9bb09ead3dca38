package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"sgfcp/internal/api"
	"sgfcp/internal/auth"
	"sgfcp/internal/dashboard"
	applog "sgfcp/internal/log"
	"sgfcp/internal/metrics"
	"sgfcp/internal/middleware/security"
	"sgfcp/internal/middleware/trace"
	"sgfcp/internal/session"
	appweb "sgfcp/web"
)

// Options tunes the server.
type Options struct {
	Addr              string
	Production        bool
	LoginRateLimit    int
	MaintenanceWindow time.Duration
	// RequestTimeout bounds handler work, the snapshot load included.
	RequestTimeout time.Duration
}

// Deps are the collaborators the handlers drive.
type Deps struct {
	Sessions   *session.Manager
	Guard      *auth.Guard
	Dashboards *dashboard.Registry
	// API builds a client for one session's base URL and token.
	API     func(baseURL, token string) *api.Client
	Metrics *metrics.Metrics
	Logger  *applog.Logger
	// Ready reports whether the session backend is reachable.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	opts      Options
	deps      Deps
	templates *template.Template
	logger    *applog.Logger
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = applog.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 10
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 45 * time.Second
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		deps:      deps,
		templates: t,
		logger:    deps.Logger.WithComponent(applog.ComponentHTTP),
		started:   deps.Now(),
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return err
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		static.ServeHTTP(w, r)
	}))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())

	loginLimiter := httprate.Limit(s.opts.LoginRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "Demasiados intentos. Espera un minuto").Write(w)
		}),
	)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", loginLimiter(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /settings/theme", s.handleToggleTheme)
	mux.HandleFunc("POST /settings/base-url", s.handleBaseURL)

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /dashboard/reload", s.requireToken(s.handleReload))
	mux.HandleFunc("GET /dashboard/body", s.requireToken(s.handleBody))
	mux.HandleFunc("POST /dashboard/filter", s.requireToken(s.handleFilter))
	mux.HandleFunc("POST /dashboard/filter/reset", s.requireToken(s.handleFilterReset))
	mux.HandleFunc("POST /dashboard/charts/{id}/expand", s.requireToken(s.handleChartExpand))
	mux.HandleFunc("POST /dashboard/charts/close", s.requireToken(s.handleChartClose))
	mux.HandleFunc("GET /dashboard/export.csv", s.requireToken(s.handleExport))
	return nil
}

// middleware wraps mux, outermost first.
func (s *Server) middleware(mux http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'",
		SSLRedirect:           s.opts.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !s.opts.Production,
	})
	tracer := trace.NewMiddleware(s.deps.Logger)
	detector := security.NewDetector(s.deps.Logger, security.WithObserver(s.deps.Metrics.ObserveSuspicious))

	stack := []func(http.Handler) http.Handler{
		detector.Middleware,
		tracer.Middleware,
		middleware.Recoverer,
		secureMiddleware.Handler,
		middleware.Compress(5, "text/html", "text/css", "application/javascript", "text/csv", "image/svg+xml"),
		s.withSession,
		s.withCSRF,
	}

	h := s.deps.Metrics.Middleware(mux)
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}

// Shutdown stops the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
