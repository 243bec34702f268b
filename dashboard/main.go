package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/supply-dashboard/dashboard/config"
	"github.com/tair/supply-dashboard/dashboard/health"
	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/dashboard/routes"
	authdomain "github.com/tair/supply-dashboard/internal/auth/domain"
	"github.com/tair/supply-dashboard/internal/auth/repository"
	"github.com/tair/supply-dashboard/internal/identity"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/internal/order/usecase/command"
	"github.com/tair/supply-dashboard/internal/workspace"
	"github.com/tair/supply-dashboard/kafka"
	"github.com/tair/supply-dashboard/pkg/database"
	"github.com/tair/supply-dashboard/pkg/logger"
	"github.com/tair/supply-dashboard/pkg/tracing"
)

func main() {
	cfg := config.LoadConfig()

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Msg("Starting Supply Dashboard")

	// Initialize tracer
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracing.Shutdown(ctx, tp); err != nil {
					logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
				}
			}()
		}
	}

	m := metrics.NewRegistry()
	ctx := context.Background()

	// Redis backs the auth rate limiter only
	var limiterStore redis.Cmdable
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.Redis.Addr).
			Msg("Failed to connect to Redis - rate limiting will be disabled")
		redisClient.Close()
		redisClient = nil
	} else {
		limiterStore = redisClient
		defer redisClient.Close()
		logger.Logger.Info().
			Str("redis_addr", cfg.Redis.Addr).
			Int("limit", cfg.RateLimit.MaxRequests).
			Dur("window", cfg.RateLimit.Window).
			Msg("Auth rate limiting enabled")
	}

	db, preferences := setupPreferences(cfg)

	var publisher command.EventPublisher
	if cfg.Kafka.Enabled {
		p, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Logger.Warn().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka unavailable - order events disabled")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	cognito := identity.NewCognitoClient(identity.CognitoConfig{
		Region:       cfg.Identity.Region,
		Endpoint:     cfg.Identity.Endpoint,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		Timeout:      cfg.Identity.Timeout,
	}, m)

	registry := workspace.NewRegistry(&workspace.Dependencies{
		Settings: workspace.Settings{
			BackendURL:  cfg.Backend.BaseURL,
			Timeout:     cfg.Backend.Timeout,
			WarehouseID: cfg.Backend.WarehouseID,
			AdminGroups: cfg.Identity.AdminGroups,
		},
		Provider:    cognito,
		Preferences: preferences,
		Publisher:   publisher,
		Metrics:     m,
	}, cfg.Session.IdleTTL)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go registry.Run(sweepCtx, cfg.Session.SweepInterval)

	healthChecker := health.NewHealthChecker(cfg.ServiceName, healthTargets(cfg, cognito, redisClient, db)...)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Supply Dashboard",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	setupMiddleware(app, cfg)

	routes.SetupRoutes(app, routes.Dependencies{
		Registry:  registry,
		Health:    healthChecker,
		Metrics:   m,
		Redis:     limiterStore,
		RateLimit: cfg.RateLimit,
		Session: middleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.CookieSecure,
			MaxAge:     cfg.Session.IdleTTL,
		},
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Logger.Info().
			Str("addr", addr).
			Str("backend", cfg.Backend.BaseURL).
			Str("identity", cognito.Endpoint()).
			Msg("Supply Dashboard listening")

		if err := app.Listen(addr); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down Supply Dashboard")
	stopSweeper()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Logger.Info().Msg("Supply Dashboard stopped")
}

// setupPreferences picks Postgres for remembered logins when configured and
// falls back to process memory otherwise.
func setupPreferences(cfg *config.DashboardConfig) (*gorm.DB, authdomain.PreferenceRepository) {
	if !cfg.DatabaseEnabled {
		logger.Logger.Info().Msg("Database disabled - login preferences kept in memory")
		return nil, repository.NewMemoryPreferenceRepository()
	}

	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to connect to database - login preferences kept in memory")
		return nil, repository.NewMemoryPreferenceRepository()
	}

	repo := repository.NewGormPreferenceRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to migrate preferences - login preferences kept in memory")
		return nil, repository.NewMemoryPreferenceRepository()
	}
	return db, repo
}

func healthTargets(cfg *config.DashboardConfig, cognito *identity.CognitoClient, redisClient *redis.Client, db *gorm.DB) []health.Target {
	targets := []health.Target{
		{Name: "backend", URL: cfg.Backend.BaseURL + cfg.Backend.HealthCheck},
		{Name: "identity", URL: cognito.Endpoint(), Reachable: true},
	}
	if redisClient != nil {
		targets = append(targets, health.Target{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	if db != nil {
		targets = append(targets, health.Target{Name: "database", Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	return targets
}

// setupMiddleware configures global middleware
func setupMiddleware(app *fiber.App, cfg *config.DashboardConfig) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLoggingMiddleware())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-Id, traceparent, tracestate",
		AllowCredentials: true,
		ExposeHeaders:    "X-Request-Id, X-Trace-Id, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:           86400,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":      err.Error(),
		"statusCode": code,
		"path":       c.Path(),
		"method":     c.Method(),
		"requestId":  c.GetRespHeader(fiber.HeaderXRequestID),
	})
}
