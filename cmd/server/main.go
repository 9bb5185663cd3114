package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	insuranceapp "github.com/payroll/backend/internal/application/insurance"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/infrastructure/cache"
	"github.com/payroll/backend/internal/infrastructure/config"
	"github.com/payroll/backend/internal/infrastructure/logger"
	"github.com/payroll/backend/internal/infrastructure/persistence"
	"github.com/payroll/backend/internal/infrastructure/storage"
	"github.com/payroll/backend/internal/infrastructure/telemetry"
	"github.com/payroll/backend/internal/interfaces/http/handler"
	"github.com/payroll/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting payroll backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:       log,
		TraceEnabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	var invalidator insurance.CacheInvalidator
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable at startup, summary cache invalidation degraded", zap.Error(err))
	}
	invalidator = cache.NewRedisSummaryInvalidatorWithClient(redisClient,
		cache.WithInvalidatorLogger(log))

	periodRepo := persistence.NewGormPeriodRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	typeRepo := persistence.NewGormInsuranceTypeRepository(db.DB)
	baseRepo := persistence.NewGormContributionBaseRepository(db.DB)
	ruleRepo := persistence.NewGormInsuranceRuleRepository(db.DB)
	entryRepo := persistence.NewGormPayrollEntryRepository(db.DB)

	snapshotService := insuranceapp.NewSnapshotService(periodRepo, categoryRepo, typeRepo, baseRepo, ruleRepo, log)
	calcService := insuranceapp.NewCalculationService(snapshotService, entryRepo, invalidator, log)
	batchService := insuranceapp.NewBatchService(snapshotService, entryRepo, invalidator, cfg.Batch, log)

	var exportService *insuranceapp.ExportService
	if cfg.Storage.Enabled {
		exportStorage, err := storage.NewS3ExportStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export storage", zap.Error(err))
		}
		if err := exportStorage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure export bucket", zap.Error(err))
		}
		exportService = insuranceapp.NewExportService(batchService, exportStorage, log)
		log.Info("Export storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		log.Info("Export storage disabled, batch export endpoint unavailable")
	}

	insuranceHandler := handler.NewInsuranceHandler(calcService, batchService, exportService)
	healthHandler := handler.NewHealthHandler(
		db,
		handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	)

	engine := router.New(router.Options{
		Config:           cfg,
		Logger:           log,
		InsuranceHandler: insuranceHandler,
		HealthHandler:    healthHandler,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
