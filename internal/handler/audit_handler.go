package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

type auditQuery struct {
	UserID string `form:"userId"`
	Action string `form:"action"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// AuditHandler lists recorded gateway actions.
type AuditHandler struct {
	repo auditLister
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(repo auditLister) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary List audit records
// @Tags Audit
// @Produce json
// @Param userId query string false "User ID"
// @Param action query string false "Action"
// @Param limit query int false "Limit (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query auditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid audit query"))
		return
	}
	logs, err := h.repo.List(c.Request.Context(), models.AuditFilter{
		UserID: query.UserID,
		Action: query.Action,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
