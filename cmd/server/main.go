package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/infrastructure/cache"
	"github.com/sellerhub/backend/internal/infrastructure/config"
	"github.com/sellerhub/backend/internal/infrastructure/jobs"
	"github.com/sellerhub/backend/internal/infrastructure/logger"
	"github.com/sellerhub/backend/internal/infrastructure/marketplace"
	"github.com/sellerhub/backend/internal/infrastructure/persistence"
	"github.com/sellerhub/backend/internal/infrastructure/telemetry"
	"github.com/sellerhub/backend/internal/interfaces/http/handler"
	"github.com/sellerhub/backend/internal/interfaces/http/middleware"
	"github.com/sellerhub/backend/internal/interfaces/http/router"
)

//	@title			SellerHub Reconciliation API
//	@version		1.0
//	@description	Cross-marketplace product reconciliation backend

//	@contact.name	API Support
//	@contact.url	https://github.com/sellerhub/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	SellerID
//	@in							header
//	@name						X-Seller-ID
//	@description				Seller scope for all reconciliation endpoints. Authentication happens upstream.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SellerHub Reconciliation Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize OpenTelemetry metrics
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Register database tracing on the GORM instance
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Reconciliation run metrics (no-op when telemetry is disabled)
	var runMetrics appreconciliation.RunMetrics = appreconciliation.NopMetrics{}
	if cfg.Telemetry.Enabled {
		rm, err := telemetry.NewReconciliationMetrics(meterProvider.Meter("sellerhub/reconciliation"))
		if err != nil {
			log.Fatal("Failed to create reconciliation metrics", zap.Error(err))
		}
		runMetrics = rm
	}

	// Per-seller reconciliation lease: Redis for multi-instance deployments,
	// in-memory for single-instance or local development
	var lease appreconciliation.SellerLease
	if cfg.Lease.InMemory {
		lease = cache.NewInMemorySellerLeaseWithTTL(cfg.Lease.TTL)
		log.Info("Using in-memory seller lease", zap.Duration("ttl", cfg.Lease.TTL))
	} else {
		redisLease, err := cache.NewRedisSellerLease(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis for seller lease", zap.Error(err))
		}
		lease = redisLease
		log.Info("Using Redis seller lease",
			zap.String("host", cfg.Redis.Host),
			zap.Duration("ttl", cfg.Lease.TTL),
		)
	}

	// Marketplace catalog adapters, one per enabled marketplace
	adapters := marketplace.NewAdapterRegistry()
	registerAdapter(adapters, log, "trendyol", cfg.Marketplaces.Trendyol, marketplace.NewTrendyolClient)
	registerAdapter(adapters, log, "hepsiburada", cfg.Marketplaces.Hepsiburada, marketplace.NewHepsiburadaClient)
	registerAdapter(adapters, log, "n11", cfg.Marketplaces.N11, marketplace.NewN11Client)
	registerAdapter(adapters, log, "amazon", cfg.Marketplaces.Amazon, marketplace.NewAmazonClient)

	// Field-mapping strategies and the normalizer built on them
	mappers := marketplace.NewMapperRegistry()
	normalizer := reconciliation.NewNormalizer(mappers, log)

	// Concurrent catalog fetcher
	fetcher := marketplace.NewFetcher(adapters, log)

	// Canonical product repository
	productRepo := persistence.NewGormReconciledProductRepository(db.DB)

	// Application services
	analyzeService := appreconciliation.NewAnalyzeService(fetcher, normalizer, runMetrics, log)
	reconcileService := appreconciliation.NewReconcileService(fetcher, normalizer, runMetrics, log)
	executeService := appreconciliation.NewExecuteService(fetcher, normalizer, productRepo, lease, runMetrics, log)

	// Background job runner for bulk reconciliation
	jobRunner, err := jobs.NewRunner(jobs.Config{
		Workers:    cfg.Jobs.Workers,
		QueueSize:  cfg.Jobs.QueueSize,
		JobTimeout: cfg.Jobs.JobTimeout,
		MaxTracked: cfg.Jobs.MaxTracked,
	}, executeService, log)
	if err != nil {
		log.Fatal("Failed to create job runner", zap.Error(err))
	}
	if err := jobRunner.Start(context.Background()); err != nil {
		log.Fatal("Failed to start job runner", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := jobRunner.Stop(stopCtx); err != nil {
			log.Error("Error stopping job runner", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	reconciliationHandler := handler.NewReconciliationHandler(analyzeService, reconcileService, executeService)
	jobHandler := handler.NewReconciliationJobHandler(jobRunner)
	productHandler := handler.NewReconciledProductHandler(productRepo)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans
	// 5. Metrics - HTTP metrics instruments
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning, no seller scope)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Seller scoping for all API routes except system endpoints
	r.Use(middleware.SellerMiddlewareWithConfig(middleware.SellerMiddlewareConfig{
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/ping",
		},
		Required: true,
		Logger:   log,
	}))

	// Reconciliation domain
	reconciliationRoutes := router.NewDomainGroup("reconciliation", "/reconciliation")
	reconciliationRoutes.POST("/analyze", reconciliationHandler.Analyze)
	reconciliationRoutes.POST("/run", reconciliationHandler.Reconcile)
	reconciliationRoutes.POST("/execute", reconciliationHandler.Execute)

	// Background jobs
	reconciliationRoutes.POST("/jobs", jobHandler.Submit)
	reconciliationRoutes.GET("/jobs/:id", jobHandler.Get)
	reconciliationRoutes.DELETE("/jobs/:id", jobHandler.Cancel)

	// Canonical products
	reconciliationRoutes.GET("/products", productHandler.List)
	reconciliationRoutes.GET("/products/:id", productHandler.GetByID)

	// System endpoints
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(reconciliationRoutes).
		Register(systemRoutes)

	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// registerAdapter builds a marketplace catalog client from config and adds it
// to the registry. Disabled marketplaces are skipped so the fetch layer never
// sees them.
func registerAdapter(
	registry *marketplace.AdapterRegistry,
	log *zap.Logger,
	name string,
	cfg config.MarketplaceConfig,
	newClient func(marketplace.ClientConfig) (*marketplace.CatalogClient, error),
) {
	if !cfg.Enabled {
		log.Info("Marketplace disabled, skipping adapter", zap.String("marketplace", name))
		return
	}

	client, err := newClient(marketplace.ClientConfig{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		PageSize:       cfg.PageSize,
		TimeoutSeconds: cfg.TimeoutSeconds,
		Enabled:        cfg.Enabled,
		RatePerSecond:  cfg.RatePerSecond,
		RateBurst:      cfg.RateBurst,
	})
	if err != nil {
		log.Fatal("Failed to create marketplace client",
			zap.String("marketplace", name),
			zap.Error(err),
		)
	}
	registry.Register(client)
	log.Info("Marketplace adapter registered",
		zap.String("marketplace", name),
		zap.String("base_url", cfg.BaseURL),
	)
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
