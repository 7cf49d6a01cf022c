package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-academic-core/api/swagger"
	"github.com/noah-isme/sma-academic-core/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-academic-core/internal/middleware"
	"github.com/noah-isme/sma-academic-core/internal/repository"
	"github.com/noah-isme/sma-academic-core/internal/scheduler"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/cache"
	"github.com/noah-isme/sma-academic-core/pkg/config"
	"github.com/noah-isme/sma-academic-core/pkg/database"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-academic-core/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-academic-core/pkg/middleware/requestid"
)

// @title SMA Academic Core API
// @version 0.2.0
// @description Class group allocation and class session generation
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.NewPostgres(bootCtx, cfg.Database)
	cancel()
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	bootCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
	redisClient, err = cache.NewRedis(bootCtx, cfg.Redis)
	cancel()
	if err != nil {
		logr.Warn("redis unavailable, job locks disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		redisClient = nil
	}
	jobLocks := repository.NewJobLockRepository(redisClient, logr)
	defer jobLocks.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	uow := repository.NewSQLUnitOfWork(db)

	allocator := service.NewClassGroupAllocator(uow, validate, logr, metricsSvc, service.ClassGroupAllocatorConfig{
		DefaultCapacity: cfg.Allocation.DefaultCapacity,
		MaxRetries:      cfg.Allocation.MaxRetries,
	})
	generator := service.NewSessionGeneratorService(uow, validate, logr, metricsSvc, service.SessionGeneratorConfig{
		DefaultHorizonMonths: cfg.Sessions.DefaultHorizonMonths,
		BatchTimeout:         cfg.Sessions.BatchTimeout,
	})
	retention := service.NewSessionRetentionService(uow, validate, logr, metricsSvc, cfg.Sessions.RetentionKeepYears)

	queue := jobs.NewQueue("sessions", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.Retries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	service.NewJobDispatcher(generator, retention, jobLocks, metricsSvc, logr, cfg.Jobs.LockTTL).Register(queue)
	queue.Start(ctx)
	defer queue.Stop()

	var cron *scheduler.Scheduler
	if cfg.Cron.Enabled {
		cron, err = scheduler.New(cfg.Cron, cfg.Sessions, queue, logr)
		if err != nil {
			logr.Fatal("failed to configure cron", zap.Error(err))
		}
		cron.Start()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	health := handler.NewHealthHandler(checks)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		ClassGroups:   handler.NewClassGroupHandler(allocator),
		ClassSessions: handler.NewClassSessionHandler(generator, retention),
	}.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cron != nil {
		cron.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
