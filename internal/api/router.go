package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/identity-platform/auth-service/internal/api/handler"
	"github.com/identity-platform/auth-service/internal/api/middleware"
	"github.com/identity-platform/auth-service/internal/core/domain"
	"github.com/identity-platform/auth-service/internal/core/ports"
	"github.com/identity-platform/auth-service/internal/core/service"
)

// Dependencies carries everything the router needs. Mongo and Redis are only
// used by the readiness probe and may be nil in tests, in which case the
// probe is not registered.
type Dependencies struct {
	Log     zerolog.Logger
	Users   ports.UserRepository
	Hasher  ports.PasswordHasher
	Tokens  *service.TokenService
	Revoker ports.TokenRevoker

	// UseDatabase selects the trust mode of the authentication pipeline.
	UseDatabase bool

	// Registry receives the request metrics. Nil means the default
	// Prometheus registry; tests pass a fresh one so routers can be built
	// repeatedly without duplicate registration.
	Registry *prometheus.Registry

	Mongo *mongo.Database
	Redis *redis.Client
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if deps.Registry != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "auth",
			Registerer: deps.Registry,
		}))
	} else {
		e.Use(echoprometheus.NewMiddleware("auth"))
	}
	e.Use(middleware.Authenticate(middleware.AuthConfig{
		Tokens:      deps.Tokens,
		Users:       deps.Users,
		Revoker:     deps.Revoker,
		UseDatabase: deps.UseDatabase,
	}))

	// --- Services and handlers ---
	authService := service.NewAuthService(deps.Users, deps.Hasher, deps.Tokens, deps.Log)
	adminService := service.NewAdminService(deps.Users, deps.Log)

	authHandler := handler.NewAuthHandler(authService, deps.Revoker)
	adminHandler := handler.NewAdminHandler(adminService)
	welcomeHandler := handler.NewWelcomeHandler()

	// --- Auth routes (public except logout) ---
	auth := e.Group("/api/v1/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, middleware.RequireAuthenticated())

	// --- Admin routes (ADMIN only) ---
	admin := e.Group("/api/v1/admin", middleware.AnyOf(domain.RoleAdmin))
	admin.PUT("/users/role", adminHandler.ChangeUserRole)
	admin.GET("/roles/info", adminHandler.RoleSystemInfo)

	// --- Role-gated welcome routes ---
	welcome := e.Group("/api/v1/welcome")
	welcome.GET("", welcomeHandler.Welcome, middleware.RequireAuthenticated())
	welcome.GET("/user", welcomeHandler.UserEndpoint, middleware.RequireAuthenticated())
	welcome.GET("/moderator", welcomeHandler.ModeratorEndpoint, middleware.MinRole(domain.RoleModerator))
	welcome.GET("/supervisor", welcomeHandler.SupervisorEndpoint, middleware.MinRole(domain.RoleSupervisor))
	welcome.GET("/manager", welcomeHandler.ManagerEndpoint, middleware.AnyOf(domain.RoleAdmin, domain.RoleManager))
	welcome.GET("/admin", welcomeHandler.AdminEndpoint, middleware.AnyOf(domain.RoleAdmin))

	// --- Observability (no auth required) ---
	if deps.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	} else {
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness) // liveness – is the process alive?
	if deps.Mongo != nil && deps.Redis != nil {
		readiness := handler.NewReadinessHandler(deps.Mongo, deps.Redis)
		e.GET("/health/ready", readiness.Readiness) // readiness – are dependencies up?
	}

	return e
}
