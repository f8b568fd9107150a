// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/opsdesk/internal/activity"
	"github.com/bissquit/opsdesk/internal/catalog"
	"github.com/bissquit/opsdesk/internal/comments"
	"github.com/bissquit/opsdesk/internal/config"
	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/identity"
	"github.com/bissquit/opsdesk/internal/incidents"
	"github.com/bissquit/opsdesk/internal/monitor"
	"github.com/bissquit/opsdesk/internal/pkg/ctxlog"
	"github.com/bissquit/opsdesk/internal/pkg/httputil"
	"github.com/bissquit/opsdesk/internal/seed"
	"github.com/bissquit/opsdesk/internal/storage/memory"
	"github.com/bissquit/opsdesk/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// OpenAPIPath is where the API document is served from, relative to the working directory.
const OpenAPIPath = "api/openapi/openapi.yaml"

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	store         *memory.Store
	monitor       *monitor.Monitor
	server        *http.Server
	metricsServer *http.Server
}

// Option configures an App.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock overrides the time source of the incident service.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// New creates a new application instance.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := initLogger(cfg.Log)

	store := memory.New()
	if cfg.Seed.Enabled {
		store.Load(seed.Dataset(seed.BaseTime))
		stats := store.Stats()
		logger.Info("seed data loaded",
			"services", stats.Services,
			"users", stats.Users,
			"comments", stats.Comments,
			"activity", stats.Activity,
		)
	}

	app := &App{
		config: cfg,
		logger: logger,
		store:  store,
	}

	if cfg.Monitor.Enabled {
		m, err := monitor.New(monitor.Config{Schedule: cfg.Monitor.Schedule}, store, store, logger)
		if err != nil {
			return nil, fmt.Errorf("create sla monitor: %w", err)
		}
		app.monitor = m
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(o),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the monitor and the HTTP servers. It blocks until the main
// server stops.
func (a *App) Run() error {
	if a.monitor != nil {
		a.monitor.Start(context.Background())
	}

	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	if a.monitor != nil {
		a.monitor.Stop(ctx)
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Store returns the application store.
func (a *App) Store() *memory.Store {
	return a.store
}

func (a *App) setupRouter(o options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.Success(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, OpenAPIPath)
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>opsdesk API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
	})

	identityService := identity.NewService(a.store)
	identityHandler := identity.NewHandler(identityService)

	catalogService := catalog.NewService(a.store)

	var incidentOpts []incidents.Option
	if o.clock != nil {
		incidentOpts = append(incidentOpts, incidents.WithClock(o.clock))
	}
	incidentsService := incidents.NewService(a.store, incidentOpts...)
	incidentsHandler := incidents.NewHandler(incidentsService)

	catalogHandler := catalog.NewHandler(catalogService, incidentsService)

	commentsHandler := comments.NewHandler(comments.NewService(a.store))
	activityHandler := activity.NewHandler(activity.NewService(a.store))

	r.Route("/api", func(r chi.Router) {
		r.Use(httputil.UserContextMiddleware(identityService))
		if a.config.RateLimit.Enabled {
			limiter := rate.NewLimiter(rate.Limit(a.config.RateLimit.RequestsPerSecond), a.config.RateLimit.Burst)
			r.Use(httputil.RateLimitMiddleware(limiter))
		}

		identityHandler.RegisterRoutes(r)
		incidentsHandler.RegisterRoutes(r)
		commentsHandler.RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
		activityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(domain.RoleResponder, domain.RoleAdmin))
			incidentsHandler.RegisterResponderRoutes(r)
			commentsHandler.RegisterResponderRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(domain.RoleAdmin))
			catalogHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
