package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/usermanagement-backend/api/controllers"
	"github.com/angelmondragon/usermanagement-backend/api/middleware"
	"github.com/angelmondragon/usermanagement-backend/api/responses"
	"github.com/angelmondragon/usermanagement-backend/internal/auth"
	"github.com/angelmondragon/usermanagement-backend/internal/users"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/metrics"
	"github.com/angelmondragon/usermanagement-backend/pkg/redis"
)

// RouterParams collects what the HTTP surface needs. Redis, RateLimiter,
// HTTPMetrics and MetricsHandler are optional.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	RateLimiter    redis.RateLimiter
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	AuthService    auth.Service
	UserService    users.Service
	Version        string
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	baseURL := cfg.App.PublicBaseURL

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
		chimw.StripSlashes,
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "method not allowed"))
	})

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	r.Get("/openapi.json", controllers.OpenAPI(p.Version))
	if p.MetricsHandler != nil {
		r.Handle("/metrics", p.MetricsHandler)
	}

	r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimiter, logg)).
		Post("/register", controllers.AuthRegister(p.AuthService, baseURL, logg))
	r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).
		Post("/login", controllers.AuthLogin(p.AuthService, logg))
	r.Get("/verify-email/{userId}/{token}", controllers.AuthVerifyEmail(p.AuthService, baseURL, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(middleware.RequireRoles(logg, enums.UserRoleAuthenticated, enums.UserRoleManager, enums.UserRoleAdmin)).
			Get("/me", controllers.Me(p.UserService, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleManager))
			r.Get("/", controllers.UserList(p.UserService, baseURL, logg))
			r.Post("/", controllers.UserCreate(p.UserService, baseURL, logg))
			r.Get("/{userId}", controllers.UserGet(p.UserService, baseURL, logg))
			r.Put("/{userId}", controllers.UserUpdate(p.UserService, baseURL, logg))
			r.Post("/{userId}/unlock", controllers.UserUnlock(p.UserService, baseURL, logg))
		})
	})

	return r
}
