package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/MANROEJR/ifs24027-pbo-p11/internal/api/http"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/http/handlers"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/auth"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/config"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/events"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/observability"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/persistence"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/repository"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/service"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/storage"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/worker"
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

	observability.LogStartup(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)

	var registry auth.TokenRegistry
	switch cfg.Auth.RegistryBackend {
	case config.RegistryBackendRedis:
		registry = repository.NewRedisTokenRegistry(redis.Client, cfg.Auth.TokenTTL())
	default:
		registry = repository.NewPostgresTokenRegistry(pool)
	}

	codec, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("failed to init token codec", zap.Error(err))
	}

	files, err := storage.NewFileStorage(cfg.Storage.UploadDir, int64(cfg.Storage.MaxUploadBytes))
	if err != nil {
		logger.Fatal("failed to init file storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Registry:   registry,
		Codec:      codec,
		Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:   taskRepo,
		Files:      files,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	gate := auth.NewGate(auth.GateConfig{
		Codec:          codec,
		Registry:       registry,
		Users:          userRepo,
		PublicPrefixes: cfg.Auth.PublicPrefixes,
		PublicPaths:    cfg.Auth.PublicPaths,
		StoreTimeout:   cfg.Auth.StoreTimeout(),
		Logger:         logger.Named("auth"),
		Recorder:       metrics,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Storage.MaxUploadBytes + 1<<20,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Gate: gate,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:     handlers.NewUsersHandler(authService),
		Tasks:     handlers.NewTasksHandler(taskService, cfg.App.Location),
		Errors:    handlers.NewErrorPageHandler(),
		Metrics:   metrics.Handler(),
		UploadDir: files.Dir(),
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
