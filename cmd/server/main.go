package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/bizsuite/catalog-service/config"
	"github.com/bizsuite/catalog-service/docs"
	"github.com/bizsuite/catalog-service/internal/catalog"
	"github.com/bizsuite/catalog-service/internal/database"
	"github.com/bizsuite/catalog-service/internal/handlers"
	"github.com/bizsuite/catalog-service/internal/middleware"
	"github.com/bizsuite/catalog-service/internal/sweepers"
	"github.com/bizsuite/catalog-service/internal/telemetry"
)

// @title Catalog Service API
// @version 1.0
// @description Internal API for catalog price grid resolution and export.
// @BasePath /internal
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(ctx, dbURL, database.PoolOptions{
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	repo := database.NewCatalogRepository(database.Pool())
	engine := catalog.NewEngine(repo.Sources(), &cfg.Catalog)

	var resolver catalog.Resolver = engine
	var gridCache sweepers.CacheInvalidator
	if cfg.Catalog.CacheEnabled {
		cached := catalog.NewCachedResolver(engine, &cfg.Catalog)
		resolver, gridCache = cached, cached
		logger.Info().
			Dur("ttl", cfg.Catalog.CacheTTL).
			Int("max_size", cfg.Catalog.CacheMaxSize).
			Msg("Price grid cache enabled")
	}
	handlers.InitCatalog(resolver, engine, repo)

	var observationSweeper *sweepers.ObservationSweeper
	if cfg.Maintenance.PruneEnabled {
		observationSweeper = sweepers.NewObservationSweeper(repo, gridCache, logger,
			cfg.Maintenance.PruneInterval, cfg.Maintenance.ObservationRetention)
		go observationSweeper.Start(ctx)
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs.SwaggerInfo.BasePath = "/internal"
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Server.APIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		internal.GET("/health", handlers.HealthCheck)

		cat := internal.Group("/catalog")
		{
			cat.POST("/price-grid", handlers.ResolvePriceGrid)
			cat.GET("/price-grid", handlers.GetPriceGrid)
			cat.GET("/price-grid/export", handlers.ExportPriceGrid)
			cat.GET("/price-lists", handlers.ListPriceLists)
			cat.GET("/matrix/:code", handlers.GetMatrix)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
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
	if observationSweeper != nil {
		observationSweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
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

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "catalog-service").Logger()

	// Packages log through the global logger with their own component field
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
}
