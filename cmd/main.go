package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/internal/handler"
	"github.com/Payphone-Digital/learnpath/internal/middleware"
	"github.com/Payphone-Digital/learnpath/internal/repository"
	"github.com/Payphone-Digital/learnpath/internal/router"
	"github.com/Payphone-Digital/learnpath/internal/service"
	"github.com/Payphone-Digital/learnpath/pkg/database"
	"github.com/Payphone-Digital/learnpath/pkg/events"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/Payphone-Digital/learnpath/pkg/redis"
	"github.com/Payphone-Digital/learnpath/pkg/tracing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)
	for _, w := range config.Warnings() {
		log.Warn("Configuration warning", zap.String("warning", w))
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, config, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db, err := database.NewDB(config)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	if err := database.OptimizedIndexes(db); err != nil {
		log.Warn("Failed to create optimized indexes", zap.Error(err))
	}
	if err := database.Seed(db); err != nil {
		log.Error("Failed to seed database", zap.Error(err))
	}

	// Redis is optional: without it rate limits are kept in process.
	var (
		windowStore middleware.WindowStore
		redisProbe  handler.RedisProbe
	)
	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-process rate limits", zap.Error(err))
		} else {
			defer redisClient.Close()
			windowStore = redisClient
			redisProbe = redisClient
		}
	}

	// Progress events leave through a buffered dispatcher so a broker
	// outage never holds up a request.
	var (
		publisher  events.Publisher = events.NopPublisher{}
		dispatcher *events.AsyncPublisher
	)
	if config.RabbitMQ.Enabled {
		amqpPublisher, err := events.NewAMQPPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, progress events disabled", zap.Error(err))
		} else {
			dispatcher = events.NewAsyncPublisher(amqpPublisher, events.DefaultQueueSize, events.DefaultPublishTimeout, log)
			publisher = dispatcher
		}
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledger := repository.NewRefreshTokenRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	// Services
	userService := service.NewUserService(userRepo, config.Auth.BcryptCost)
	tokenService := service.NewTokenService(config.JWT.Secret, config.JWT.AccessTokenExpiry, config.JWT.RefreshTokenExpiry, ledger)
	authService := service.NewAuthService(userService, tokenService, ledger)
	progressService := service.NewProgressService(progressRepo, publisher)
	cleanup := service.NewTokenCleanup(ledger, config.Auth.TokenCleanupInterval)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	progressHandler := handler.NewProgressHandler(progressService)
	healthHandler := handler.NewHealthHandler(db, redisProbe)

	r := router.NewRouter(
		authHandler,
		progressHandler,
		healthHandler,

		middleware.NewValidationMiddleware(),
		middleware.NewJWTMiddleware(tokenService),
		middleware.NewRateLimiters(config.RateLimit, windowStore),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", zap.String("port", config.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return cleanup.Run(gctx)
	})

	if dispatcher != nil {
		g.Go(func() error {
			return dispatcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.App.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server stopped")
}
