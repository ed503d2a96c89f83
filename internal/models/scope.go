package models

// RequestScope selects which asset-request listing the asset service is asked for.
type RequestScope string

const (
	ScopeAssetManager RequestScope = "asset-manager"
	ScopeDepartment   RequestScope = "department"
)

// Valid reports whether the scope is one the gateway knows how to fetch.
func (s RequestScope) Valid() bool {
	return s == ScopeAssetManager || s == ScopeDepartment
}

// ExportFormat is the rendering format of an overview export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ScopeSelection is a resolved scope, with the department it targets when
// Scope is ScopeDepartment.
type ScopeSelection struct {
	Scope        RequestScope `json:"scope"`
	DepartmentID string       `json:"departmentId,omitempty"`
}

// Key renders the selection as a cache key segment.
func (s ScopeSelection) Key() string {
	if s.Scope == ScopeDepartment {
		return string(s.Scope) + "=" + s.DepartmentID
	}
	return string(s.Scope)
}
