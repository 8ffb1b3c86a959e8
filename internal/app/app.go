package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"curvepulse/internal/config"
	"curvepulse/internal/curve"
	apierrors "curvepulse/internal/errors"
	"curvepulse/internal/infrastructure"
	customMiddleware "curvepulse/internal/middleware"
	"curvepulse/internal/services"
	handlers "curvepulse/internal/transport/http"
	ws "curvepulse/internal/websocket"
)

const (
	Version = "1.0.0"
	AppName = "CurvePulse"
)

// BuildTime is set at compile time via -ldflags
var BuildTime = time.Now().Format(time.RFC3339)

// Application wires configuration, services and the HTTP server together
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Cache         *curve.TableCache
	CurveService  *services.CurveService
	HealthService *services.HealthService
	Hub           *ws.Hub
	Metrics       *handlers.Metrics
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("build_time", BuildTime))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the domain, service and streaming layers
func (a *Application) initializeServices() {
	generator := curve.NewSeriesGenerator(a.Logger)
	a.Cache = curve.NewTableCache(generator, a.Config.Curve.MaxCacheEntries, a.Logger)

	tracer := a.OTelProviders.TracerOrNoop()
	a.CurveService = services.NewCurveService(a.Cache, a.Config.Curve, tracer, a.Logger)

	a.Hub = ws.NewHub(a.Config.WebSocket, a.CurveService, a.Logger)
	a.Hub.Start()

	a.HealthService = services.NewHealthService(Version, BuildTime, a.Cache, a.Hub, a.Logger)
	a.Metrics = handlers.NewMetrics(a.Hub)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that is safe for the websocket upgrade path.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// Websocket route stays outside the full middleware chain so nothing
	// wraps the ResponseWriter before the hijack.
	wsHandler := handlers.NewWebSocketHandler(
		a.Hub,
		a.Config.WebSocket,
		a.Config.Security.AllowedOrigins,
		a.Logger,
		errorHandler,
	)
	r.Handle("/ws", wsHandler)

	// Prometheus exposition is served outside the instrumented group.
	r.Handle("/metrics", a.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.Metrics.Instrument)
		r.Use(customMiddleware.Tracing(a.OTelProviders.TracerOrNoop()))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/healthz", healthHandler.HealthCheck)

		curveHandler := handlers.NewCurveHandler(a.CurveService, a.Logger, errorHandler)
		r.Mount("/curve", curveHandler.Routes())
	})
}

// corsConfig adapts the security section of the configuration
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run starts the server and blocks until the context is cancelled or the
// process receives SIGINT or SIGTERM, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Logger.InfoContext(ctx, "http server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("version", Version))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		return a.Stop(context.Background())
	})

	return group.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing log file",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}
