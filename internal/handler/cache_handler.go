package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/response"
)

type cacheAdminService interface {
	Invalidate(ctx context.Context, claims *models.JWTClaims, req dto.InvalidateCacheRequest) (*dto.InvalidateCacheResult, error)
}

// CacheHandler exposes cache administration.
type CacheHandler struct {
	service cacheAdminService
}

// NewCacheHandler constructs the handler.
func NewCacheHandler(service cacheAdminService) *CacheHandler {
	return &CacheHandler{service: service}
}

// Invalidate godoc
// @Summary Invalidate cached read models by tag
// @Tags Cache
// @Accept json
// @Produce json
// @Param payload body dto.InvalidateCacheRequest true "Tags to drop"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid invalidate payload"))
		return
	}

	result, err := h.service.Invalidate(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.RefreshJobID != "" {
		response.Accepted(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
