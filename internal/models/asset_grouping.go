package models

// Fallback buckets for borrowed assets whose task matches no request.
const (
	UnknownProjectID      = "unknown_project"
	UnknownProjectTitle   = "Unknown Project"
	UnknownDepartmentID   = "unknown_department"
	UnknownDepartmentName = "Unknown Department"
)

// JoinPolicy decides what happens when several requests share a task id.
type JoinPolicy string

const (
	// JoinLastWins keeps the last request seen for a task id.
	JoinLastWins JoinPolicy = "last-wins"
	// JoinCollectAll files the asset under every distinct project/department
	// among the matching requests.
	JoinCollectAll JoinPolicy = "collect-all"
)

// ProjectGroups maps project id to its group.
type ProjectGroups map[string]*ProjectGroup

// ProjectGroup holds the departments of one project.
type ProjectGroup struct {
	Title       string
	Departments map[string]*DepartmentGroup
}

// DepartmentGroup holds assets in input order.
type DepartmentGroup struct {
	Name   string
	Assets []BorrowedAsset
}

// AssetPredicate selects borrowed assets.
type AssetPredicate func(BorrowedAsset) bool

// ActiveAssets selects assets that have not been returned.
func ActiveAssets(a BorrowedAsset) bool { return a.IsActive() }

// Count returns how many assets in the department satisfy pred; nil counts all.
func (d *DepartmentGroup) Count(pred AssetPredicate) int {
	if d == nil {
		return 0
	}
	if pred == nil {
		return len(d.Assets)
	}
	n := 0
	for _, asset := range d.Assets {
		if pred(asset) {
			n++
		}
	}
	return n
}

// Count sums Count over all departments.
func (p *ProjectGroup) Count(pred AssetPredicate) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, dept := range p.Departments {
		n += dept.Count(pred)
	}
	return n
}

// Count sums Count over all projects.
func (g ProjectGroups) Count(pred AssetPredicate) int {
	n := 0
	for _, project := range g {
		n += project.Count(pred)
	}
	return n
}

// Filter returns a copy keeping only assets that satisfy pred. Departments and
// projects left empty are dropped. The receiver is not modified.
func (g ProjectGroups) Filter(pred AssetPredicate) ProjectGroups {
	out := make(ProjectGroups, len(g))
	for projectID, project := range g {
		if project == nil {
			continue
		}
		var kept map[string]*DepartmentGroup
		for deptID, dept := range project.Departments {
			if dept == nil {
				continue
			}
			var assets []BorrowedAsset
			for _, asset := range dept.Assets {
				if pred == nil || pred(asset) {
					assets = append(assets, asset)
				}
			}
			if len(assets) == 0 {
				continue
			}
			if kept == nil {
				kept = make(map[string]*DepartmentGroup)
			}
			kept[deptID] = &DepartmentGroup{Name: dept.Name, Assets: assets}
		}
		if len(kept) == 0 {
			continue
		}
		out[projectID] = &ProjectGroup{Title: project.Title, Departments: kept}
	}
	return out
}
