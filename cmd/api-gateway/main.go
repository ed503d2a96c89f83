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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/handler"
	"github.com/noah-isme/asset-desk-api/internal/middleware"
	"github.com/noah-isme/asset-desk-api/internal/models"
	"github.com/noah-isme/asset-desk-api/internal/repository"
	"github.com/noah-isme/asset-desk-api/internal/service"
	"github.com/noah-isme/asset-desk-api/pkg/cache"
	"github.com/noah-isme/asset-desk-api/pkg/config"
	"github.com/noah-isme/asset-desk-api/pkg/database"
	"github.com/noah-isme/asset-desk-api/pkg/export"
	"github.com/noah-isme/asset-desk-api/pkg/jobs"
	"github.com/noah-isme/asset-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/asset-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/asset-desk-api/pkg/middleware/requestid"
	"github.com/noah-isme/asset-desk-api/pkg/storage"
	"github.com/noah-isme/asset-desk-api/pkg/upstream"
)

// @title Asset Desk API
// @version 0.2.0
// @description Gateway over the asset management service
// @BasePath /
// @schemes http

const shutdownTimeout = 15 * time.Second

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	var auditDB *sqlx.DB
	if cfg.Audit.Enabled {
		auditDB, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect audit database", zap.Error(err))
		}
		defer auditDB.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	client, err := upstream.NewClient(upstream.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		Timeout:     cfg.Upstream.Timeout,
		Credentials: upstream.ForwardedToken{},
		Observer:    metrics,
		Logger:      logr,
	})
	if err != nil {
		logr.Fatal("invalid upstream configuration", zap.Error(err))
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Overview.CacheTTL, logr, cfg.Overview.CacheEnabled && redisClient != nil)

	readModels := service.NewReadModelService(
		repository.NewBorrowedAssetRepository(client),
		repository.NewAssetRequestRepository(client),
		cacheSvc,
		cfg.Overview.CacheTTL,
		logr,
	)
	overviewSvc := service.NewAssetOverviewService(readModels, cacheSvc, metrics, validate, service.AssetOverviewConfig{
		JoinPolicy: models.JoinPolicy(cfg.Overview.JoinPolicy),
		CacheTTL:   cfg.Overview.CacheTTL,
	}, logr)
	requestSvc := service.NewAssetRequestService(readModels, validate, logr)

	refreshWorker := service.NewOverviewRefreshWorker(overviewSvc, logr)
	refreshQueue := jobs.NewQueue("overview-refresh", refreshWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		MaxRetries: cfg.Refresh.Retries,
		RetryDelay: cfg.Refresh.RetryDelay,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	cacheAdminSvc := service.NewCacheAdminService(cacheSvc, refreshQueue, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		exportSvc = service.NewExportService(
			overviewSvc,
			files,
			storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
			metrics,
			validate,
			service.ExportConfig{Enabled: true, APIPrefix: cfg.APIPrefix, Retention: cfg.Exports.SignedURLTTL},
			logr,
			export.NewCSVExporter(true),
			export.NewPDFExporter(),
		)
		go runExportCleanup(ctx, exportSvc, cfg.Exports.CleanupInterval, logr)
	}

	var auditRepo *repository.AuditRepository
	if auditDB != nil {
		auditRepo = repository.NewAuditRepository(auditDB).WithQueryObserver(metrics)
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			logr.Fatal("failed to prepare audit table", zap.Error(err))
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, routeDeps{
		logger:    logr,
		auth:      service.NewAuthService(cfg.JWT.Secret, logr),
		metrics:   handler.NewMetricsHandler(metrics, readinessChecks(redisClient, auditDB)),
		overview:  handler.NewAssetOverviewHandler(overviewSvc),
		requests:  handler.NewAssetRequestHandler(requestSvc, service.StatusCatalog),
		cache:     handler.NewCacheHandler(cacheAdminSvc),
		exports:   exportHandler(exportSvc),
		auditRepo: auditRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.String("join_policy", string(overviewSvc.JoinPolicy())),
			zap.Bool("cache", cacheSvc.Enabled()),
			zap.Bool("exports", cfg.Exports.Enabled),
			zap.Bool("audit", auditRepo != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func exportHandler(svc *service.ExportService) *handler.ExportHandler {
	if svc == nil {
		return nil
	}
	return handler.NewExportHandler(svc)
}

func readinessChecks(redisClient *redis.Client, db *sqlx.DB) map[string]handler.ReadinessCheck {
	checks := make(map[string]handler.ReadinessCheck)
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	return checks
}

func runExportCleanup(ctx context.Context, svc *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.Cleanup()
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
