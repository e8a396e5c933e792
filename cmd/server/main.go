package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/marketpadi/compare-service/config"
	"github.com/marketpadi/compare-service/internal/alerts"
	"github.com/marketpadi/compare-service/internal/catalog"
	"github.com/marketpadi/compare-service/internal/database"
	"github.com/marketpadi/compare-service/internal/engine"
	"github.com/marketpadi/compare-service/internal/handlers"
	"github.com/marketpadi/compare-service/internal/learning"
	"github.com/marketpadi/compare-service/internal/middleware"
	"github.com/marketpadi/compare-service/internal/prefs"
	"github.com/marketpadi/compare-service/internal/routing"
	"github.com/marketpadi/compare-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting compare service")

	ctx := context.Background()

	telemetryCleanup := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryCleanup(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	pool := database.Pool()
	priceCatalog := catalog.NewPostgresCatalog(pool)
	prefStore := prefs.NewPostgresStore(pool)
	alertStore := alerts.NewPostgresStore(pool)

	var router engine.DistanceProvider
	if cfg.Routing.GoogleAPIKey != "" {
		router = routing.NewGoogleClient(routing.Config{
			APIKey:  cfg.Routing.GoogleAPIKey,
			BaseURL: cfg.Routing.BaseURL,
			Timeout: cfg.Routing.Timeout,
		})
		logger.Info().Msg("Routing provider enabled")
	} else {
		logger.Info().Msg("No routing API key, using geodesic distances only")
	}

	comparer := engine.NewComparer(priceCatalog, priceCatalog, router, &cfg.Engine)
	handlers.InitCompare(comparer, &cfg.Engine, prefStore, learning.NewHeuristicLearner())
	handlers.InitAlerts(alertStore, alerts.NewEvaluator(priceCatalog))

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	setupMiddleware(ginRouter, logger)
	ginRouter.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))

	ginRouter.GET("/health", handlers.HealthCheck)
	ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))
	ginRouter.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := ginRouter.Group("/v1")
	{
		compare := v1.Group("/compare")
		{
			compare.POST("/net-saving", handlers.CompareNetSaving)
			compare.GET("/stores/nearby", handlers.NearbyStores)
			compare.POST("/quick-check", handlers.QuickCheck)
		}

		users := v1.Group("/users")
		{
			users.GET("/:userId/preferences", handlers.GetPreferences)
			users.PUT("/:userId/preferences", handlers.UpdatePreferences)
			users.POST("/:userId/switching-events", handlers.RecordSwitchingEvent)
			users.GET("/:userId/alerts", handlers.ListAlerts)
			users.POST("/:userId/alerts", handlers.CreateAlert)
		}
	}

	internal := ginRouter.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.POST("/alerts/evaluate", handlers.EvaluateAlerts)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      ginRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "compare-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
