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

	httptransport "github.com/spec-kit/recognition-wall/internal/api/http"
	"github.com/spec-kit/recognition-wall/internal/api/http/handlers"
	"github.com/spec-kit/recognition-wall/internal/auth"
	"github.com/spec-kit/recognition-wall/internal/config"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/observability"
	"github.com/spec-kit/recognition-wall/internal/persistence"
	"github.com/spec-kit/recognition-wall/internal/repository"
	"github.com/spec-kit/recognition-wall/internal/repository/memory"
	"github.com/spec-kit/recognition-wall/internal/service"
	"github.com/spec-kit/recognition-wall/internal/storage"
	"github.com/spec-kit/recognition-wall/internal/worker"
)

const metricsNamespace = "recognition_wall"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(metricsNamespace)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	metrics.RegisterGauge(metricsNamespace, "db_pool_acquired_connections",
		"Postgres connections currently checked out of the pool.", pg.AcquiredConns)

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var notificationStore persistence.NotificationStore
	if redis.Reachable() {
		notificationStore = persistence.NewRedisNotificationStore(redis.Client, cfg.Notification.MaxPerUser)
	} else {
		logger.Warn("notification inbox kept in memory")
		notificationStore = persistence.NewMemoryNotificationStore(cfg.Notification.MaxPerUser)
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, cfg.Storage.MaxUploadBytes)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger, metrics)
	deps := repositories(pg)
	deps.Blobs = blobs
	deps.Dispatcher = dispatcher
	deps.Feed = cfg.Feed
	deps.Logger = logger

	postService := service.NewPostService(deps)
	commentService := service.NewCommentService(deps)
	reactionService := service.NewReactionService(deps)
	moderationService := service.NewModerationService(deps, postService, commentService)
	feedService := service.NewFeedService(deps)
	leaderboardService := service.NewLeaderboardService(deps)
	userService := service.NewUserService(deps)
	notificationService := service.NewNotificationService(dispatcher, notificationStore, logger)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, deps.Users)
	writeLimiter := auth.NewWriteLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) + 1<<20,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Posts:          handlers.NewPostsHandler(postService, feedService, reactionService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Reports:        handlers.NewReportsHandler(moderationService),
		Users:          handlers.NewUsersHandler(userService),
		Leaderboard:    handlers.NewLeaderboardHandler(leaderboardService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
		WriteLimiter:   writeLimiter,
		Metrics:        metrics,
		UploadDir:      blobs.Dir(),
		UploadPrefix:   cfg.Storage.PublicBaseURL,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// repositories picks Postgres when a pool is open and the in-memory store
// otherwise.
func repositories(pg *persistence.Postgres) service.Dependencies {
	if pg.Enabled() {
		pool := pg.Pool
		return service.Dependencies{
			Tx:          repository.NewTransactor(pool),
			Users:       repository.NewUserRepository(pool),
			Posts:       repository.NewPostRepository(pool),
			Attachments: repository.NewAttachmentRepository(pool),
			Reactions:   repository.NewReactionRepository(pool),
			Comments:    repository.NewCommentRepository(pool),
			Reports:     repository.NewReportRepository(pool),
		}
	}
	store := memory.NewStore()
	return service.Dependencies{
		Tx:          store,
		Users:       store.Users(),
		Posts:       store.Posts(),
		Attachments: store.Attachments(),
		Reactions:   store.Reactions(),
		Comments:    store.Comments(),
		Reports:     store.Reports(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
