package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"civease-be/analytics"
	"civease-be/config"
	"civease-be/controllers"
	"civease-be/jobs"
	"civease-be/middlewares"
	"civease-be/routes"
	"civease-be/services"
	"civease-be/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.NewLogger(cfg)

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = rand.Text()
		logger.Warn().Msg("JWT_SECRET not set; using a random secret, sessions end on restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		redisClient, err = config.ConnectRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.RedisAddress).Msg("redis connection established")
	}

	store, err := storage.Open(ctx, cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open storage")
	}
	defer store.Close()
	logger.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	collections := storage.NewCollections(store)
	if cfg.SeedDemoData {
		seeded, err := storage.Seed(ctx, collections, time.Now())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
		if seeded {
			logger.Info().Msg("seeded demo users and issues")
		}
	}

	placeholders, err := analytics.NewPlaceholders(cfg.AnalyticsPlaceholders)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid ANALYTICS_PLACEHOLDERS")
	}

	issueService := services.NewIssueService(collections)
	authService := services.NewAuthService(collections, cfg.JWTSecret, cfg.TokenTTL)
	analyticsService := services.NewAnalyticsService(collections, placeholders)

	if err := controllers.RegisterValidators(); err != nil {
		logger.Fatal().Err(err).Msg("failed to register validators")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(routes.Dependencies{
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxies(),
		RateLimit: routes.RateLimit{
			Client: redisClient,
			Prefix: cfg.IssueLimitQueue,
			Limit:  cfg.IssueRateLimit,
		},
		Issues: controllers.NewIssueController(issueService, logger),
		Auth: controllers.NewAuthController(authService, controllers.CookieOptions{
			Secure: cfg.IsProduction(),
			MaxAge: cfg.TokenTTL,
		}, logger),
		Analytics: controllers.NewAnalyticsController(analyticsService, logger),
		Health:    controllers.NewHealthController(store, logger),
		Metrics:   middlewares.NewMetrics(registry),
	})

	if cfg.DigestCron != "" {
		digest, err := jobs.NewDigest(cfg.DigestCron, time.Local, logger, analyticsService)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to schedule digest")
		}
		digest.Start()
		defer digest.Stop()
	}

	run(logger, router, ":"+cfg.Port)
}

func run(logger zerolog.Logger, handler http.Handler, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
