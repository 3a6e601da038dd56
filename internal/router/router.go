package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casacaminho/shelter-api/internal/middleware"
	"github.com/casacaminho/shelter-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AdminHandler is a Handler with routes reserved for admins.
type AdminHandler interface {
	Handler
	RegisterAdminRoutes(*gin.RouterGroup)
}

// MetricsHandler records request metrics.
type MetricsHandler interface {
	Middleware() gin.HandlerFunc
}

type Handlers struct {
	Health      Handler
	Auth        Handler
	Patient     AdminHandler
	Room        AdminHandler
	WaitingList Handler
	Stay        Handler
	Dashboard   Handler
	Analytics   Handler
	Metrics     MetricsHandler
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodySize    int64
	RateLimit      *middleware.RateLimiterConfig // nil disables rate limiting
	CORSConfig     middleware.CORSConfig
	Security       middleware.SecurityConfig
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	h      Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, h Handlers, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	middleware.RegisterValidators()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)
	if h.Metrics != nil {
		engine.Use(h.Metrics.Middleware())
	}
	engine.Use(
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.SizeLimit(config.MaxBodySize),
	)
	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}

	return &Router{
		engine: engine,
		auth:   auth,
		h:      h,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api")

	// Public routes
	r.h.Health.RegisterRoutes(api)
	r.h.Auth.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range []Handler{
		r.h.Patient,
		r.h.Room,
		r.h.WaitingList,
		r.h.Stay,
		r.h.Dashboard,
		r.h.Analytics,
	} {
		h.RegisterRoutes(protected)
	}

	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.UserRoleAdmin))
	r.h.Patient.RegisterAdminRoutes(admin)
	r.h.Room.RegisterAdminRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
