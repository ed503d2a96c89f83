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

type assetOverviewService interface {
	Overview(ctx context.Context, claims *models.JWTClaims, query dto.OverviewQuery) (*dto.BorrowedAssetOverview, bool, error)
}

// AssetOverviewHandler serves the grouped borrowed-asset overview.
type AssetOverviewHandler struct {
	service assetOverviewService
}

// NewAssetOverviewHandler constructs the handler.
func NewAssetOverviewHandler(service assetOverviewService) *AssetOverviewHandler {
	return &AssetOverviewHandler{service: service}
}

// Overview godoc
// @Summary Borrowed assets grouped by project and department
// @Tags Borrowed Assets
// @Produce json
// @Param scope query string false "asset-manager or department"
// @Param departmentId query string false "Department ID (department scope)"
// @Param activeOnly query bool false "Hide returned assets"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /borrowed-assets/overview [get]
func (h *AssetOverviewHandler) Overview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.OverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid overview query"))
		return
	}

	overview, hit, err := h.service.Overview(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}
