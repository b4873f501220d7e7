package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/di"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/internal/service"
	"github.com/optread/optread-api/migrations"
	"github.com/optread/optread-api/pkg/config"
	"github.com/optread/optread-api/pkg/database"
	"github.com/optread/optread-api/pkg/logger"
	"github.com/optread/optread-api/pkg/mailer"
	"github.com/optread/optread-api/pkg/redis"
	"github.com/optread/optread-api/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Optread API...")

	ctx := context.Background()

	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	} else if telemetryCfg.Enabled {
		appLog.Info(fmt.Sprintf("Telemetry initialized (collector: %s)", telemetryCfg.CollectorAddr))
	}
	defer telemetry.Shutdown(ctx)

	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	if err := db.Migrate(migrations.FS); err != nil {
		appLog.Fatal(fmt.Sprintf("Migrations failed: %v", err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(ctx, &redis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: time.Second,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
		}
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (%s)", cfg.Redis.Addr()))
	}

	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		Mailer:         mailer.NewLogMailer(appLog),
		UserRepo:       repository.NewPostgresUserRepository(db.Pool()),
		BookRepo:       repository.NewPostgresBookRepository(db.Pool()),
		CategoryRepo:   repository.NewPostgresCategoryRepository(db.Pool()),
		TrackingRepo:   repository.NewPostgresTrackingCodeRepository(db.Pool()),
		SubscriberRepo: repository.NewPostgresSubscriberRepository(db.Pool()),
		AuthConfig: &service.AuthServiceConfig{
			JWTSecret:       cfg.JWT.Secret,
			SessionTokenTTL: cfg.JWT.SessionTokenTTL,
			ResetTokenTTL:   cfg.Auth.ResetTokenTTL,
			BcryptCost:      cfg.Auth.BcryptCost,
			PublicURL:       cfg.App.PublicURL,
		},
		PublicURL: cfg.App.PublicURL,
	})

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.App.Name))
	}

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	authRequired := middleware.Auth(container.AuthService)
	adminOnly := middleware.AdminOnly()
	authRateLimit := middleware.RateLimit(redisClient, middleware.RateLimitConfig{
		RequestsPerMinute: cfg.Auth.RateLimitPerMinute,
		KeyPrefix:         "ratelimit:auth:",
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			// Credential endpoints sit behind the rate limiter
			auth.POST("/register", authRateLimit, container.AuthHandler.Register)
			auth.POST("/login", authRateLimit, container.AuthHandler.Login)
			auth.POST("/request-reset", authRateLimit, container.AuthHandler.RequestReset)
			auth.GET("/verify-reset-token/:token", container.AuthHandler.VerifyResetToken)
			auth.POST("/reset-password/:token", authRateLimit, container.AuthHandler.ResetPassword)

			protected := auth.Group("")
			protected.Use(authRequired)
			{
				protected.GET("/me", container.AuthHandler.Me)
				protected.PUT("/profile", container.AuthHandler.UpdateProfile)
				protected.PUT("/password", container.AuthHandler.ChangePassword)
			}
		}

		users := v1.Group("/users")
		users.Use(authRequired, adminOnly)
		{
			users.GET("", container.UserHandler.List)
			users.PUT("/:id/status", container.UserHandler.UpdateStatus)
			users.DELETE("/:id", container.UserHandler.Delete)
		}

		// Public book surface; the catalog is browsable anonymously, only
		// authoring requires a session
		v1.GET("/book/:slug", container.BookHandler.GetBySlug)
		v1.GET("/books", container.BookHandler.List)
		v1.GET("/books/:id", container.BookHandler.Get)
		v1.POST("/books/:id/views", container.BookHandler.IncrementViews)
		v1.POST("/books/:id/downloads", container.BookHandler.IncrementDownloads)

		books := v1.Group("/books")
		books.Use(authRequired)
		{
			books.POST("", container.BookHandler.Create)
			books.PUT("/:id", container.BookHandler.Update)
			books.DELETE("/:id", container.BookHandler.Delete)
		}
		v1.GET("/my-books", authRequired, container.BookHandler.ListMine)

		v1.GET("/categories", container.CategoryHandler.List)
		categories := v1.Group("/categories")
		categories.Use(authRequired, adminOnly)
		{
			categories.POST("", container.CategoryHandler.Create)
			categories.PUT("/:id", container.CategoryHandler.Update)
			categories.DELETE("/:id", container.CategoryHandler.Delete)
		}

		v1.GET("/tracking-codes/active/:position", container.TrackingHandler.ListActive)
		tracking := v1.Group("/tracking-codes")
		tracking.Use(authRequired, adminOnly)
		{
			tracking.GET("", container.TrackingHandler.List)
			tracking.POST("", container.TrackingHandler.Create)
			tracking.PUT("/:id", container.TrackingHandler.Update)
			tracking.DELETE("/:id", container.TrackingHandler.Delete)
		}

		v1.POST("/subscriber", container.SubscriberHandler.Subscribe)
		subscribers := v1.Group("/subscribers")
		subscribers.Use(authRequired)
		{
			subscribers.GET("/:bookId", container.SubscriberHandler.List)
			subscribers.GET("/export/:bookId", container.SubscriberHandler.ExportCSV)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Optread API listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
