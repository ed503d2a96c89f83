package dto

import "github.com/noah-isme/asset-desk-api/internal/models"

// ListAssetRequestsQuery captures GET /asset-requests filters. Status is a
// comma separated list of workflow statuses.
type ListAssetRequestsQuery struct {
	Scope        models.RequestScope `form:"scope" validate:"omitempty,request_scope"`
	DepartmentID string              `form:"departmentId" validate:"omitempty,max=128"`
	ProjectID    string              `form:"projectId" validate:"omitempty,max=128"`
	Status       string              `form:"status" validate:"omitempty,request_statuses"`
	Page         int                 `form:"page" validate:"omitempty,min=1"`
	PageSize     int                 `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// AssetRequestView decorates an upstream request with its status badge.
type AssetRequestView struct {
	models.AssetRequest
	StatusLabel    string            `json:"statusLabel"`
	StatusColor    models.ColorToken `json:"statusColor"`
	StatusTerminal bool              `json:"statusTerminal"`
}

// RequestStatusOption is one entry of the status catalog.
type RequestStatusOption struct {
	Value    models.RequestStatus   `json:"value"`
	Label    string                 `json:"label"`
	Color    models.ColorToken      `json:"color"`
	Terminal bool                   `json:"terminal"`
	Next     []models.RequestStatus `json:"next"`
}
