package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"

	"github.com/spardhafest/spardha/internal/config"
	"github.com/spardhafest/spardha/internal/gate"
	"github.com/spardhafest/spardha/internal/handler"
	"github.com/spardhafest/spardha/internal/registration"
	"github.com/spardhafest/spardha/internal/server/middleware"
	"github.com/spardhafest/spardha/internal/service"
	"github.com/spardhafest/spardha/internal/session"
	"github.com/spardhafest/spardha/internal/site"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// CSRFKey is the 32-byte key for form CSRF tokens. Form posts are not
	// checked when CSRFDisabled is set.
	CSRFKey      []byte
	CSRFDisabled bool
	CookieSecure bool

	GateAttemptsPerMinute int
	LoginsPerMinute       int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:                  "0.0.0.0",
		Port:                  8080,
		ShutdownTimeout:       30 * time.Second,
		CORSOrigins:           []string{"*"},
		GateAttemptsPerMinute: 10,
		LoginsPerMinute:       10,
	}
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Store         *config.Store
	Gate          *gate.Gate
	Tickets       *gate.Tickets
	Sessions      *session.Manager
	AuthSvc       *service.AuthService
	Registrations *registration.Service
	Site          *site.Renderer
	Logger        *slog.Logger
}

// Server is the top-level HTTP server. It owns the Chi router and the
// collaborators the handlers share.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	d := s.deps

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	// The gate and login budgets are shared by the HTML form and the JSON
	// endpoint of the same action.
	gateLimit := middleware.RateLimit(s.cfg.GateAttemptsPerMinute)
	loginLimit := middleware.RateLimit(s.cfg.LoginsPerMinute)

	adminHandler := handler.NewAdminHandler(d.Gate, d.Tickets, d.AuthSvc, d.Sessions, s.logger)
	regHandler := handler.NewRegistrationHandler(d.Registrations, s.logger)
	dashHandler := handler.NewDashboardHandler(d.Registrations, d.Site.Festival(), s.logger)
	pages := handler.NewPageHandler(handler.PageDeps{
		Site:          d.Site,
		Gate:          d.Gate,
		Tickets:       d.Tickets,
		AuthSvc:       d.AuthSvc,
		Sessions:      d.Sessions,
		Registrations: d.Registrations,
		Logger:        s.logger,
	})

	// --- Health checks ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI description of the JSON API ---
	r.Get("/openapi.json", handler.NewOpenAPIHandler(d.Site.Festival()).ServeSpec)

	// --- HTML site ---
	r.Group(func(r chi.Router) {
		r.Use(s.csrfProtect())

		r.Get("/", pages.Landing)
		r.Post("/register", pages.Register)

		r.Get("/admin/gate", pages.Gate)
		r.With(gateLimit).Post("/admin/gate", pages.SubmitPIN)
		r.With(loginLimit).Post("/admin/login", pages.Login)
		r.Post("/admin/logout", pages.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePage(d.Sessions))
			r.Get("/admin", pages.Dashboard)
			r.Get("/admin/export.xlsx", dashHandler.Export)
		})
	})

	// --- JSON API ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(s.corsOptions()))
		// Bodies must be JSON so a cross-site form cannot post to the API.
		r.Use(chimw.AllowContentType("application/json"))

		r.Get("/events", regHandler.ListEvents)
		r.Post("/registrations", regHandler.Create)

		r.With(gateLimit).Post("/admin/pin", adminHandler.VerifyPIN)
		r.With(loginLimit).Post("/admin/session", adminHandler.Login)
		r.Delete("/admin/session", adminHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(d.Sessions))
			r.Get("/admin/session", adminHandler.CurrentSession)
			r.Get("/admin/registrations", dashHandler.ListRegistrations)
			r.Get("/admin/stats", dashHandler.Stats)
			r.Get("/admin/registrations/export", dashHandler.Export)
		})
	})

	s.router = r
}

// corsOptions allows credentialed cross-origin calls only from explicitly
// listed origins. A wildcard (or empty) list opens the API to any origin
// without cookies.
func (s *Server) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders: []string{"X-Total-Count", "X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}
	if len(opts.AllowedOrigins) == 0 || slices.Contains(opts.AllowedOrigins, "*") {
		opts.AllowedOrigins = []string{"*"}
		return opts
	}
	opts.AllowCredentials = true
	return opts
}

// csrfProtect guards the HTML forms. Requests that did not arrive over TLS
// are marked plaintext so the origin check does not demand https.
func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	if s.cfg.CSRFDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	protect := csrf.Protect(s.cfg.CSRFKey,
		csrf.Secure(s.cfg.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "csrf check failed",
				"path", r.URL.Path, "reason", csrf.FailureReason(r))
			http.Error(w, "Your form expired. Please reload the page and try again.", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database answers a
// ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning. The caller closes the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
