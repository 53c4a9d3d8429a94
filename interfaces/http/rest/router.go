package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest/handlers"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest/middleware"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

// ReadinessCheck reports whether a dependency can serve requests
type ReadinessCheck func(ctx context.Context) error

// Settings configure the HTTP surface
type Settings struct {
	AllowedOrigins   []string
	EnableCORS       bool
	Cookies          middleware.CookieSettings
	GuardWaitTimeout time.Duration
	Debug            bool
}

// Services are the application services behind the routes
type Services struct {
	Auth      *services.AuthService
	Network   *services.NetworkService
	Content   *services.ContentService
	Analytics *services.AnalyticsService
}

// Router creates and configures the HTTP router
type Router struct {
	services  Services
	validator middleware.TokenValidator
	metrics   *observability.Collector
	tracer    trace.Tracer
	settings  Settings
	checks    map[string]ReadinessCheck
	logger    *zap.Logger
}

// NewRouter creates a new router instance. validator, metrics and tracer
// may be nil.
func NewRouter(
	svc Services,
	validator middleware.TokenValidator,
	metrics *observability.Collector,
	tracer trace.Tracer,
	settings Settings,
	logger *zap.Logger,
) *Router {
	if settings.GuardWaitTimeout <= 0 {
		settings.GuardWaitTimeout = 3 * time.Second
	}
	return &Router{
		services:  svc,
		validator: validator,
		metrics:   metrics,
		tracer:    tracer,
		settings:  settings,
		checks:    make(map[string]ReadinessCheck),
		logger:    logger,
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (rt *Router) AddReadinessCheck(name string, check ReadinessCheck) {
	rt.checks[name] = check
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.settings.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.tracer != nil {
		router.Use(observability.TracingMiddleware(rt.tracer))
	}
	if rt.metrics != nil {
		router.Use(observability.MetricsMiddleware(rt.metrics))
	}

	if rt.settings.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.settings.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	sessions := middleware.BrowserSession(rt.settings.Cookies)
	guard := middleware.RequireSession(rt.services.Auth, rt.validator, rt.settings.GuardWaitTimeout, rt.logger)

	authHandler := handlers.NewAuthHandler(rt.services.Auth, errorHandler, rt.settings.Cookies.Secure, rt.settings.GuardWaitTimeout, rt.logger)
	router.Route("/auth", func(r chi.Router) {
		r.Use(sessions)
		r.Get("/callback", authHandler.Callback)
		r.Post("/resolve", authHandler.Resolve)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/signup", authHandler.SignUp)
		r.Post("/signout", authHandler.SignOut)
		r.Get("/session", authHandler.Session)
		r.Get("/linkedin", authHandler.LinkedIn)
		r.Get("/config", authHandler.Config)
		r.Get("/state", authHandler.State)
	})

	// Protected views
	router.Group(func(r chi.Router) {
		r.Use(sessions)
		r.Use(guard)
		r.Get("/dashboard", handlers.Page("dashboard", errorHandler))
		r.Get("/network-analysis", handlers.Page("network-analysis", errorHandler))
		r.Get("/content-creation", handlers.Page("content-creation", errorHandler))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(sessions)
		r.Use(guard)

		r.Route("/network", func(r chi.Router) {
			networkHandler := handlers.NewNetworkHandler(rt.services.Network, errorHandler, rt.logger)
			r.Get("/", networkHandler.GetNetwork)
			r.Get("/layout/stream", networkHandler.StreamLayout)
			r.Post("/pin", networkHandler.Pin)
			r.Post("/release", networkHandler.Release)
			r.Post("/reheat", networkHandler.Reheat)
		})

		r.Route("/content", func(r chi.Router) {
			contentHandler := handlers.NewContentHandler(rt.services.Content, errorHandler, rt.logger)
			r.Post("/generate", contentHandler.Generate)
			r.Get("/hashtags", contentHandler.Hashtags)
			r.Get("/draft", contentHandler.GetDraft)
			r.Put("/draft", contentHandler.SaveDraft)
			r.Delete("/draft", contentHandler.DeleteDraft)
			r.Get("/templates", contentHandler.ListTemplates)
			r.Post("/templates", contentHandler.SaveTemplate)
			r.Delete("/templates/{templateID}", contentHandler.DeleteTemplate)
		})

		r.Route("/analytics", func(r chi.Router) {
			analyticsHandler := handlers.NewAnalyticsHandler(rt.services.Analytics, errorHandler)
			r.Get("/performance", analyticsHandler.Performance)
			r.Get("/insights", analyticsHandler.Insights)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck probes every registered dependency
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := map[string]interface{}{"status": "ready", "checks": results}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	common.RespondJSON(w, status, body)
}
