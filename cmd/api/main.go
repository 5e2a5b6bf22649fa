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

	httptransport "github.com/hrportal/attendance-service/internal/api/http"
	"github.com/hrportal/attendance-service/internal/api/http/handlers"
	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/config"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/mailer"
	"github.com/hrportal/attendance-service/internal/observability"
	"github.com/hrportal/attendance-service/internal/persistence"
	"github.com/hrportal/attendance-service/internal/repository"
	"github.com/hrportal/attendance-service/internal/repository/memory"
	"github.com/hrportal/attendance-service/internal/service"
	"github.com/hrportal/attendance-service/internal/uploads"
	"github.com/hrportal/attendance-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	store, dependencies, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	dependencies["redis"] = redis

	dispatcher := events.NewInMemoryDispatcher()
	mailQueue := worker.NewMailQueue(mailer.New(cfg.Mail, logger), 128, logger)
	mailQueue.Start()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, mailQueue, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	revocations := repository.NewRedisRevocationStore(redis.Client)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:     store.Users,
		ResetTokens:  repository.NewRedisResetTokenStore(redis.Client),
		Revocations:  revocations,
		TokenManager: tokens,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	userService := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:    store.Users,
		MappingRepo: store.Mappings,
		CounterRepo: store.Counters,
		Uploads:     uploads.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.PublicURL, int64(cfg.Uploads.MaxBytes)),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	attendanceService := service.NewAttendanceService(service.AttendanceDependencies{
		AttendanceRepo: store.Attendance,
		UserRepo:       store.Users,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		UserRepo:       store.Users,
		AttendanceRepo: store.Attendance,
	})

	if _, err := userService.EnsureSuperAdmin(ctx, cfg.Seed); err != nil {
		logger.Fatal("failed to seed super admin", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.Uploads.MaxBytes * 3,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Users:          handlers.NewUsersHandler(userService),
		Attendance:     handlers.NewAttendanceHandler(attendanceService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users, revocations, cfg.Auth.CookieName),
		UploadsDir:     cfg.Uploads.Dir,
		UploadsURL:     cfg.Uploads.PublicURL,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", cfg.Storage.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	if err := mailQueue.Stop(drainCtx); err != nil {
		logger.Warn("mail queue not drained", zap.Error(err))
	}
}

// openStore connects the configured backend and returns its repositories,
// readiness probes and a close func.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, map[string]handlers.Pinger, func()) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStore(nil), map[string]handlers.Pinger{}, func() {}
	case config.StoragePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPostgresStore(pg.PoolHandle()), map[string]handlers.Pinger{"postgres": pg}, pg.Close
	default:
		mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongo", zap.Error(err))
		}
		if err := mongo.EnsureIndexes(ctx); err != nil {
			logger.Fatal("failed to ensure mongo indexes", zap.Error(err))
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			mongo.Close(closeCtx)
		}
		return repository.NewMongoStore(mongo.DB), map[string]handlers.Pinger{"mongo": mongo}, closeFn
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
