package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/middleware"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/response"
)

type assetRequestService interface {
	List(ctx context.Context, claims *models.JWTClaims, query dto.ListAssetRequestsQuery) ([]dto.AssetRequestView, *models.Pagination, bool, error)
}

// AssetRequestHandler exposes asset request listings and the status catalog.
type AssetRequestHandler struct {
	service assetRequestService
	catalog func() []dto.RequestStatusOption
}

// NewAssetRequestHandler constructs the handler.
func NewAssetRequestHandler(service assetRequestService, catalog func() []dto.RequestStatusOption) *AssetRequestHandler {
	return &AssetRequestHandler{service: service, catalog: catalog}
}

// List godoc
// @Summary List asset requests
// @Tags Asset Requests
// @Produce json
// @Param scope query string false "asset-manager or department"
// @Param departmentId query string false "Department ID"
// @Param projectId query string false "Project ID"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /asset-requests [get]
func (h *AssetRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ListAssetRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	views, pagination, hit, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, views, pagination, middleware.ExtractMeta(c))
}

// Statuses godoc
// @Summary Request status catalog
// @Tags Asset Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /request-statuses [get]
func (h *AssetRequestHandler) Statuses(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog(), nil)
}
