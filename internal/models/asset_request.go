package models

import "time"

// AssetRequest is a staff request to borrow one asset or a set of categories
// for a task. Read-only from the gateway's perspective.
type AssetRequest struct {
	RequestID     string             `json:"requestId"`
	Status        RequestStatus      `json:"status"`
	Task          *TaskRef           `json:"task,omitempty"`
	ProjectInfo   *ProjectRef        `json:"projectInfo,omitempty"`
	RequesterInfo *RequesterRef      `json:"requesterInfo,omitempty"`
	Asset         *AssetRef          `json:"asset,omitempty"`
	Categories    []CategoryQuantity `json:"categories,omitempty"`
	CreatedAt     *time.Time         `json:"createdAt,omitempty"`
}

// TaskRef points at the task a request was raised for.
type TaskRef struct {
	TaskID      string `json:"taskID"`
	MilestoneID string `json:"milestoneId,omitempty"`
}

// ProjectRef identifies the owning project.
type ProjectRef struct {
	ProjectID string `json:"projectID"`
	Title     string `json:"title"`
}

// RequesterRef describes who raised the request.
type RequesterRef struct {
	UserID     string         `json:"userId,omitempty"`
	FullName   string         `json:"fullName,omitempty"`
	Department *DepartmentRef `json:"department,omitempty"`
}

// DepartmentRef identifies an organisational unit.
type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssetRef is a direct reference to one concrete asset.
type AssetRef struct {
	AssetID string `json:"assetId"`
	Name    string `json:"name,omitempty"`
}

// CategoryQuantity requests a number of assets from a category.
type CategoryQuantity struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
}

// TaskID returns the join key, or "" when the request has no task.
func (r AssetRequest) TaskID() string {
	if r.Task == nil {
		return ""
	}
	return r.Task.TaskID
}

// TargetsCategories reports whether the request asks for categories rather
// than one concrete asset.
func (r AssetRequest) TargetsCategories() bool {
	return r.Asset == nil && len(r.Categories) > 0
}

// ProjectID returns the owning project id or "".
func (r AssetRequest) ProjectID() string {
	if r.ProjectInfo == nil {
		return ""
	}
	return r.ProjectInfo.ProjectID
}

// DepartmentID returns the requester's department id or "".
func (r AssetRequest) DepartmentID() string {
	if r.RequesterInfo == nil || r.RequesterInfo.Department == nil {
		return ""
	}
	return r.RequesterInfo.Department.ID
}
