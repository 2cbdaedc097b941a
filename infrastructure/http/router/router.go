package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/infrastructure/http/handler"
	"github.com/chtmcooks/auth-service/infrastructure/http/middleware"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
)

type Dependencies struct {
	Auth              inbound.AuthUseCase
	PasswordReset     inbound.PasswordResetUseCase
	EmailVerification inbound.EmailVerificationUseCase
	Dashboard         inbound.DashboardUseCase
	RateLimiter       inbound.RateLimiter
	TokenService      outbound.TokenService
	Logger            logger.Logger
	HealthChecks      map[string]handler.Pinger

	CorrelationIDHeader  string
	EnableRequestLog     bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

// New builds the HTTP handler. Middleware order, outermost first: CORS,
// correlation ID, request log, recovery, optional bearer auth.
func New(deps Dependencies) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(deps.TokenService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(deps.RateLimiter, deps.Logger)

	authHandler := handler.NewAuthHandler(deps.Auth, authMiddleware, rateLimitMiddleware)
	accountHandler := handler.NewAccountHandler(deps.PasswordReset, deps.EmailVerification, authMiddleware, rateLimitMiddleware)
	rateLimitAdminHandler := handler.NewRateLimitAdminHandler(deps.RateLimiter, authMiddleware, rateLimitMiddleware)
	roleHandler := handler.NewRoleHandler(deps.Dashboard, authMiddleware, rateLimitMiddleware)
	healthHandler := handler.NewHealthHandler(deps.Logger, deps.HealthChecks)

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/auth").Subrouter()
	authHandler.RegisterRoutes(api)
	accountHandler.RegisterRoutes(api)
	rateLimitAdminHandler.RegisterRoutes(r.PathPrefix("/api/admin").Subrouter())
	roleHandler.RegisterRoutes(r.PathPrefix("/api").Subrouter())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Use(middleware.CorrelationID(deps.CorrelationIDHeader))
	if deps.EnableRequestLog {
		r.Use(middleware.RequestLog(deps.Logger))
	}
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(authMiddleware.OptionalAuth)

	return middleware.CORS(deps.CORSAllowedOrigins, deps.CORSAllowCredentials, deps.CorrelationIDHeader)(r)
}
