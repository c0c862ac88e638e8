// Package main is the entry point for the EduSync backend server.
//
//	@title						EduSync Backend API
//	@version					1.0
//	@description				Synchronization backend for CETTPRO training records.
//	@host						localhost:8080
//	@BasePath					/api/v1
//	@schemes					http https
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edusync/backend/docs"
	appsync "github.com/edusync/backend/internal/application/sync"
	"github.com/edusync/backend/internal/infrastructure/cache"
	"github.com/edusync/backend/internal/infrastructure/cettpro"
	"github.com/edusync/backend/internal/infrastructure/config"
	"github.com/edusync/backend/internal/infrastructure/logger"
	"github.com/edusync/backend/internal/infrastructure/persistence"
	"github.com/edusync/backend/internal/infrastructure/scheduler"
	"github.com/edusync/backend/internal/infrastructure/telemetry"
	"github.com/edusync/backend/internal/interfaces/http/handler"
	"github.com/edusync/backend/internal/interfaces/http/middleware"
	"github.com/edusync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting EduSync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// Export logs to the collector alongside traces when telemetry is on
	if cfg.Telemetry.Enabled {
		logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Error("Failed to initialize logs provider", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := logsProvider.Shutdown(shutdownCtx); err != nil {
					log.Error("Failed to shutdown logs provider", zap.Error(err))
				}
			}()
			bridged, err := telemetry.NewBridgedLogger(&logger.Config{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				Output:     cfg.Log.Output,
				TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			}, logsProvider, cfg.Telemetry.ServiceName)
			if err != nil {
				log.Error("Failed to create bridged logger", zap.Error(err))
			} else {
				log = bridged
				defer func() { _ = log.Sync() }()
			}
		}
	}

	// Connect to the database with a zap-backed GORM logger
	gormLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLevel)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Register database query tracing when enabled
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			SlowQueryThresh:  200 * time.Millisecond,
			DBSystem:         "postgresql",
			WithoutVariables: cfg.App.Env == "production",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Error("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	courseRepo := persistence.NewGormCourseRepository(db.DB)
	classRepo := persistence.NewGormClassRepository(db.DB)
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	txManager := &persistence.GormTransactionManager{DB: db.DB}

	// CETTPRO partner gateway
	gateway, err := cettpro.NewClient(cettpro.Config{
		BaseURL:        cfg.Partner.BaseURL,
		Username:       cfg.Partner.Username,
		Password:       cfg.Partner.Password,
		TimeoutSeconds: cfg.Partner.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize CETTPRO client", zap.Error(err))
	}

	// Application services
	orchestrator := appsync.NewOrchestrator(
		gateway,
		txManager,
		courseRepo,
		classRepo,
		studentRepo,
		enrollmentRepo,
		auditRepo,
		log,
	)

	var freshnessCache appsync.FreshnessCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisFreshnessCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.FreshnessTTL)
		if err != nil {
			// The audit table remains the source of truth, so a missing
			// Redis only costs the cache layer.
			log.Warn("Redis unavailable, falling back to in-memory freshness cache", zap.Error(err))
			freshnessCache = cache.NewInMemoryFreshnessCache(cfg.Redis.FreshnessTTL)
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Error("Failed to close Redis client", zap.Error(err))
				}
			}()
			freshnessCache = redisCache
			log.Info("Redis freshness cache enabled",
				zap.String("host", cfg.Redis.Host),
				zap.Int("port", cfg.Redis.Port),
			)
		}
	} else {
		freshnessCache = cache.NewInMemoryFreshnessCache(cfg.Redis.FreshnessTTL)
	}
	freshnessService := appsync.NewFreshnessService(auditRepo, freshnessCache, log)

	// Periodic sync trigger
	if cfg.Scheduler.Enabled {
		trigger, err := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
			Enabled:     true,
			Interval:    cfg.Scheduler.Interval,
			SyncTimeout: cfg.Scheduler.SyncTimeout,
			RunOnStart:  cfg.Scheduler.RunOnStart,
		}, orchestrator, log)
		if err != nil {
			log.Fatal("Failed to initialize sync trigger", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := trigger.Stop(stopCtx); err != nil {
				log.Error("Failed to stop sync trigger", zap.Error(err))
			}
		}()
		log.Info("Periodic sync trigger started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Bool("run_on_start", cfg.Scheduler.RunOnStart),
		)
	}

	// HTTP handlers
	syncHandler := handler.NewSyncHandler(orchestrator, freshnessService, auditRepo)
	recordsHandler := handler.NewRecordsHandler(courseRepo, classRepo, studentRepo, enrollmentRepo)
	systemHandler := handler.NewSystemHandler()

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Health check endpoint (outside the versioned API)
	engine.GET("/health", healthHandler(db))

	// Swagger documentation
	if cfg.Swagger.Enabled {
		swaggerGroup := engine.Group("/swagger")
		swaggerGroup.Use(middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, nil))
		swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Versioned API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	syncGroup := router.NewDomainGroup("sync", "/sync")
	syncGroup.POST("", syncHandler.SyncAll)
	syncGroup.POST("/:entity", syncHandler.SyncEntity)
	syncGroup.POST("/:entity/range", syncHandler.SyncEntityRange)
	syncGroup.GET("/audit", syncHandler.ListAudit)
	syncGroup.GET("/freshness/:entity", syncHandler.GetFreshness)

	recordsGroup := router.NewDomainGroup("records", "")
	recordsGroup.GET("/courses", recordsHandler.ListCourses)
	recordsGroup.GET("/courses/:id", recordsHandler.GetCourse)
	recordsGroup.GET("/classes", recordsHandler.ListClasses)
	recordsGroup.GET("/classes/:id", recordsHandler.GetClass)
	recordsGroup.GET("/classes/:id/enrollments", recordsHandler.ListClassEnrollments)
	recordsGroup.GET("/students", recordsHandler.ListStudents)
	recordsGroup.GET("/students/:id", recordsHandler.GetStudent)
	recordsGroup.GET("/enrollments", recordsHandler.ListEnrollments)
	recordsGroup.GET("/enrollments/:id", recordsHandler.GetEnrollment)

	systemGroup := router.NewDomainGroup("system", "/system")
	systemGroup.GET("/info", systemHandler.GetSystemInfo)
	systemGroup.GET("/ping", systemHandler.Ping)

	r.Register(syncGroup).Register(recordsGroup).Register(systemGroup)
	r.Setup()

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// healthHandler reports process liveness and database reachability.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
		payload := gin.H{
			"status":   "healthy",
			"database": "connected",
		}
		if stats, err := db.Stats(); err == nil {
			payload["pool"] = gin.H{
				"open":    stats.OpenConnections,
				"in_use":  stats.InUse,
				"idle":    stats.Idle,
				"waiting": stats.WaitCount,
			}
		}
		c.JSON(http.StatusOK, payload)
	}
}
