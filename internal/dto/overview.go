package dto

import (
	"time"

	"github.com/noah-isme/asset-desk-api/internal/models"
)

// OverviewQuery captures GET /borrowed-assets/overview parameters.
type OverviewQuery struct {
	Scope        models.RequestScope `json:"scope" form:"scope" validate:"omitempty,request_scope"`
	DepartmentID string              `json:"departmentId" form:"departmentId" validate:"omitempty,max=128"`
	ActiveOnly   bool                `json:"activeOnly" form:"activeOnly"`
}

// BorrowedAssetOverview is the project -> department -> asset view.
type BorrowedAssetOverview struct {
	Scope            models.RequestScope `json:"scope"`
	DepartmentID     string              `json:"departmentId,omitempty"`
	JoinPolicy       models.JoinPolicy   `json:"joinPolicy"`
	ActiveOnly       bool                `json:"activeOnly"`
	Total            int                 `json:"total"`
	Active           int                 `json:"active"`
	UnknownAssets    int                 `json:"unknownAssets"`
	DuplicateTaskIDs []string            `json:"duplicateTaskIds,omitempty"`
	Projects         []ProjectOverview   `json:"projects"`
	GeneratedAt      time.Time           `json:"generatedAt"`
}

// ProjectOverview summarises one project bucket.
type ProjectOverview struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Total       int                  `json:"total"`
	Active      int                  `json:"active"`
	Departments []DepartmentOverview `json:"departments"`
}

// DepartmentOverview lists the assets of one department within a project.
type DepartmentOverview struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Total  int                 `json:"total"`
	Active int                 `json:"active"`
	Assets []BorrowedAssetView `json:"assets"`
}

// BorrowedAssetView is a borrowed asset as rendered in the overview.
type BorrowedAssetView struct {
	AssetID     string                     `json:"assetId"`
	TaskID      string                     `json:"taskID"`
	Status      models.BorrowedAssetStatus `json:"status"`
	Active      bool                       `json:"active"`
	Description string                     `json:"description,omitempty"`
	BorrowTime  *time.Time                 `json:"borrowTime,omitempty"`
	StartTime   *time.Time                 `json:"startTime,omitempty"`
	EndTime     *time.Time                 `json:"endTime,omitempty"`
}
