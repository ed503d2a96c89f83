package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/asset-desk-api/api/swagger"
	"github.com/noah-isme/asset-desk-api/internal/handler"
	"github.com/noah-isme/asset-desk-api/internal/middleware"
	"github.com/noah-isme/asset-desk-api/internal/models"
	"github.com/noah-isme/asset-desk-api/internal/repository"
	"github.com/noah-isme/asset-desk-api/internal/service"
	"github.com/noah-isme/asset-desk-api/pkg/config"
)

type routeDeps struct {
	logger    *zap.Logger
	auth      *service.AuthService
	metrics   *handler.MetricsHandler
	overview  *handler.AssetOverviewHandler
	requests  *handler.AssetRequestHandler
	cache     *handler.CacheHandler
	exports   *handler.ExportHandler
	auditRepo *repository.AuditRepository
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	audit := func(action, resource string) gin.HandlerFunc {
		if deps.auditRepo == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.Audit(deps.auditRepo, deps.logger, action, resource)
	}

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/request-statuses", deps.requests.Statuses)
	if deps.exports != nil {
		api.GET("/exports/:token", audit(models.AuditActionExportDownload, "export"), deps.exports.Download)
	}

	secured := api.Group("", middleware.BearerAuth(deps.auth))
	secured.GET("/borrowed-assets/overview", audit(models.AuditActionOverviewView, "borrowed_assets_overview"), deps.overview.Overview)
	secured.GET("/asset-requests", deps.requests.List)
	if deps.exports != nil {
		secured.POST("/borrowed-assets/overview/exports", audit(models.AuditActionOverviewExport, "borrowed_assets_overview"), deps.exports.Create)
	}

	admin := secured.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleAssetManager))
	admin.POST("/cache/invalidate", audit(models.AuditActionCacheInvalidate, "cache"), deps.cache.Invalidate)
	admin.GET("/metrics/snapshot", deps.metrics.Snapshot)
	if deps.auditRepo != nil {
		admin.GET("/audit-logs", handler.NewAuditHandler(deps.auditRepo).List)
	}
}
