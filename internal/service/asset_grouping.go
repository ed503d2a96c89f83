package service

import (
	"sort"

	"github.com/noah-isme/asset-desk-api/internal/models"
)

// RequestIndex maps a task id to the requests referencing it, in input order.
type RequestIndex map[string][]models.AssetRequest

// IndexRequestsByTask builds the taskID join index. Requests without a task
// id are skipped.
func IndexRequestsByTask(requests []models.AssetRequest) RequestIndex {
	index := make(RequestIndex, len(requests))
	for _, req := range requests {
		taskID := req.TaskID()
		if taskID == "" {
			continue
		}
		index[taskID] = append(index[taskID], req)
	}
	return index
}

// Last returns the last request seen for taskID.
func (idx RequestIndex) Last(taskID string) (models.AssetRequest, bool) {
	matches := idx[taskID]
	if len(matches) == 0 {
		return models.AssetRequest{}, false
	}
	return matches[len(matches)-1], true
}

// DuplicateTaskIDs lists task ids referenced by more than one request, sorted.
func (idx RequestIndex) DuplicateTaskIDs() []string {
	var dups []string
	for taskID, matches := range idx {
		if len(matches) > 1 {
			dups = append(dups, taskID)
		}
	}
	sort.Strings(dups)
	return dups
}

// GroupBorrowedAssets groups assets by project and department using the
// last-wins join policy.
func GroupBorrowedAssets(assets []models.BorrowedAsset, requests []models.AssetRequest) models.ProjectGroups {
	return GroupBorrowedAssetsWithPolicy(assets, requests, models.JoinLastWins)
}

// GroupBorrowedAssetsWithPolicy groups assets by project and department.
// Assets whose task matches no request land in the unknown buckets; nothing
// is dropped. Within a bucket assets keep their input order.
func GroupBorrowedAssetsWithPolicy(assets []models.BorrowedAsset, requests []models.AssetRequest, policy models.JoinPolicy) models.ProjectGroups {
	return groupWithIndex(assets, IndexRequestsByTask(requests), policy)
}

func groupWithIndex(assets []models.BorrowedAsset, index RequestIndex, policy models.JoinPolicy) models.ProjectGroups {
	groups := make(models.ProjectGroups)
	for _, asset := range assets {
		for _, target := range bucketsFor(asset, index, policy) {
			appendToBucket(groups, target, asset)
		}
	}
	return groups
}

type bucket struct {
	projectID      string
	projectTitle   string
	departmentID   string
	departmentName string
}

func bucketsFor(asset models.BorrowedAsset, index RequestIndex, policy models.JoinPolicy) []bucket {
	if policy != models.JoinCollectAll {
		req, ok := index.Last(asset.TaskID)
		if !ok {
			return []bucket{resolveBucket(nil)}
		}
		return []bucket{resolveBucket(&req)}
	}

	matches := index[asset.TaskID]
	if len(matches) == 0 {
		return []bucket{resolveBucket(nil)}
	}
	seen := make(map[[2]string]struct{}, len(matches))
	out := make([]bucket, 0, len(matches))
	for i := range matches {
		b := resolveBucket(&matches[i])
		key := [2]string{b.projectID, b.departmentID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
	}
	return out
}

func resolveBucket(req *models.AssetRequest) bucket {
	b := bucket{
		projectID:      models.UnknownProjectID,
		projectTitle:   models.UnknownProjectTitle,
		departmentID:   models.UnknownDepartmentID,
		departmentName: models.UnknownDepartmentName,
	}
	if req == nil {
		return b
	}
	if p := req.ProjectInfo; p != nil {
		if p.ProjectID != "" {
			b.projectID = p.ProjectID
		}
		if p.Title != "" {
			b.projectTitle = p.Title
		}
	}
	if r := req.RequesterInfo; r != nil && r.Department != nil {
		if r.Department.ID != "" {
			b.departmentID = r.Department.ID
		}
		if r.Department.Name != "" {
			b.departmentName = r.Department.Name
		}
	}
	return b
}

// appendToBucket creates the project and department buckets on first use. The
// title and name recorded are the ones seen when the bucket was created.
func appendToBucket(groups models.ProjectGroups, b bucket, asset models.BorrowedAsset) {
	project, ok := groups[b.projectID]
	if !ok {
		project = &models.ProjectGroup{Title: b.projectTitle, Departments: make(map[string]*models.DepartmentGroup)}
		groups[b.projectID] = project
	}
	dept, ok := project.Departments[b.departmentID]
	if !ok {
		dept = &models.DepartmentGroup{Name: b.departmentName}
		project.Departments[b.departmentID] = dept
	}
	dept.Assets = append(dept.Assets, asset)
}
