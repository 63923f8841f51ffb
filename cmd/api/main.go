package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/stayhub/booking-api/internal/api/http"
	"github.com/stayhub/booking-api/internal/api/http/handlers"
	"github.com/stayhub/booking-api/internal/assistant"
	"github.com/stayhub/booking-api/internal/auth"
	"github.com/stayhub/booking-api/internal/config"
	"github.com/stayhub/booking-api/internal/events"
	"github.com/stayhub/booking-api/internal/observability"
	"github.com/stayhub/booking-api/internal/persistence"
	"github.com/stayhub/booking-api/internal/repository"
	"github.com/stayhub/booking-api/internal/service"
	"github.com/stayhub/booking-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewSupportTicketRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	statsCache := repository.NewRepStatsCache(redis.Client, time.Minute)

	dispatcher := events.NewInMemoryDispatcher()

	var aiGateway assistant.Assistant
	if gw := assistant.NewOpenAIAssistant(cfg.OpenAI); gw != nil {
		aiGateway = gw
	} else {
		logger.Warn("OPENAI_API_KEY not provided; ticket suggestions disabled")
	}

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
	})
	supportService := service.NewSupportService(service.SupportDependencies{
		TicketRepo: ticketRepo,
		Assistant:  aiGateway,
		StatsCache: statsCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Support:        handlers.NewSupportHandler(supportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
