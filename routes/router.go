package routes

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"civease-be/controllers"
	"civease-be/middlewares"
)

// RateLimit configures the per-client limit on issue creation. It is off
// when Client is nil.
type RateLimit struct {
	Client *redis.Client
	Prefix string
	Limit  int
}

// Dependencies are the handlers and settings the router is built from.
type Dependencies struct {
	Logger         zerolog.Logger
	JWTSecret      string
	AllowedOrigins []string
	// TrustedProxies may set the client IP through X-Forwarded-For. Nil
	// trusts no proxy, so the client IP is the peer address.
	TrustedProxies []string
	RateLimit      RateLimit

	Issues    *controllers.IssueController
	Auth      *controllers.AuthController
	Analytics *controllers.AnalyticsController
	Health    *controllers.HealthController
	Metrics   *middlewares.Metrics
}

// SetupRouter builds the gin engine with every route of the API.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Logger.Error().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}
	r.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	r.GET("/ping", deps.Health.Ping)
	r.GET("/healthz", deps.Health.Healthz)

	api := r.Group("/api")
	IssueRoutes(api, deps)
	AuthRoutes(api, deps)
	AnalyticsRoutes(api, deps)

	return r
}

// corsConfig allows credentials only for an explicit origin list, since
// browsers refuse them with a wildcard origin.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders: []string{middlewares.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
