package rest

import (
	"net/http"

	"matflow/application/commands/bus"
	"matflow/application/ports"
	querybus "matflow/application/queries/bus"
	"matflow/interfaces/http/rest/handlers"
	"matflow/interfaces/http/rest/middleware"
	"matflow/pkg/auth"
	pkgerrors "matflow/pkg/errors"
	"matflow/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options configures the router. Collector, Tracer and XRayService are
// optional.
type Options struct {
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	Tokens         middleware.TokenValidator
	LoginLimiter   auth.RateLimiter
	Health         ports.HealthChecker
	Collector      *observability.Collector
	Tracer         *observability.TracerProvider
	XRayService    string
	CORSOrigins    []string
	MaxBodyBytes   int64
	MaxUploadBytes int64
	Debug          bool
	Logger         *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	opts   Options
	errors *pkgerrors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = auth.NewKeyedLimiter(0, 1)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	return &Router{
		opts:   opts,
		errors: pkgerrors.NewErrorHandler(opts.Logger, opts.Debug),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.Recoverer)
	if rt.opts.XRayService != "" {
		router.Use(func(next http.Handler) http.Handler {
			return observability.XRayHandler(rt.opts.XRayService, next)
		})
	}
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.ClientIP)
	router.Use(middleware.Logger(rt.opts.Logger))
	router.Use(rt.errors.Middleware)
	if rt.opts.Tracer != nil {
		router.Use(middleware.Tracing(rt.opts.Tracer))
	}
	if rt.opts.Collector != nil {
		router.Use(middleware.Metrics(rt.opts.Collector))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Not found!")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed!")
	})

	health := handlers.NewHealthHandler(rt.opts.Health, rt.opts.Logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if rt.opts.Collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Collector.Handler())
	}

	deps := &handlers.Deps{
		CommandBus:   rt.opts.CommandBus,
		QueryBus:     rt.opts.QueryBus,
		Errors:       rt.errors,
		MaxBodyBytes: rt.opts.MaxBodyBytes,
		Logger:       rt.opts.Logger,
	}
	authenticate := middleware.Authenticate(rt.opts.Tokens, rt.errors, rt.opts.Logger)

	router.Route("/users", func(r chi.Router) {
		users := handlers.NewUserHandler(deps, rt.opts.MaxUploadBytes)

		r.Post("/register", users.Register)
		r.With(middleware.RateLimit(rt.opts.LoginLimiter, rt.errors, rt.opts.Logger)).
			Post("/login", users.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/current", users.Current)
			r.Patch("/update/password", users.UpdatePassword)
			r.Patch("/update/{field}", users.UpdateField)
			r.Post("/update/img", users.UploadAvatar)
			r.Delete("/delete", users.Delete)
		})
	})

	router.Route("/workflows", func(r chi.Router) {
		r.Use(authenticate)
		workflows := handlers.NewWorkflowHandler(deps)
		r.Post("/", workflows.Save)
		r.Get("/", workflows.List)
		r.Get("/{id}", workflows.Get)
		r.Delete("/{id}", workflows.Delete)
	})

	return router
}
