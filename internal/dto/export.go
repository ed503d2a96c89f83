package dto

import (
	"time"

	"github.com/noah-isme/asset-desk-api/internal/models"
)

// CreateExportRequest captures POST /borrowed-assets/overview/exports payload.
type CreateExportRequest struct {
	Format       models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Scope        models.RequestScope `json:"scope" validate:"omitempty,request_scope"`
	DepartmentID string              `json:"departmentId" validate:"omitempty,max=128"`
	ActiveOnly   bool                `json:"activeOnly"`
}

// ExportResult points at a rendered export.
type ExportResult struct {
	ID        string              `json:"id"`
	Format    models.ExportFormat `json:"format"`
	FileName  string              `json:"fileName"`
	Rows      int                 `json:"rows"`
	URL       string              `json:"url"`
	ExpiresAt time.Time           `json:"expiresAt"`
}
