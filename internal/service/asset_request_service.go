package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

const (
	defaultRequestPageSize = 20
	maxRequestPageSize     = 100
)

type assetRequestLoader interface {
	AssetRequests(ctx context.Context, userID string, sel models.ScopeSelection) ([]models.AssetRequest, bool, error)
}

// AssetRequestService filters and paginates the upstream request listing.
type AssetRequestService struct {
	loader    assetRequestLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssetRequestService constructs the service.
func NewAssetRequestService(loader assetRequestLoader, validate *validator.Validate, logger *zap.Logger) *AssetRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetRequestService{loader: loader, validator: registerValidations(validate), logger: logger}
}

// List returns one page of requests matching query. The boolean reports
// whether the listing came from cache.
func (s *AssetRequestService) List(ctx context.Context, claims *models.JWTClaims, query dto.ListAssetRequestsQuery) ([]dto.AssetRequestView, *models.Pagination, bool, error) {
	statuses, err := ParseStatusFilter(query.Status)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset request query")
	}
	sel, err := ResolveScope(claims, query.Scope, query.DepartmentID)
	if err != nil {
		return nil, nil, false, err
	}

	requests, cacheHit, err := s.loader.AssetRequests(ctx, CacheOwner(claims), sel)
	if err != nil {
		return nil, nil, false, err
	}

	matched := FilterAssetRequests(requests, AssetRequestFilter{
		Statuses:     statuses,
		ProjectID:    strings.TrimSpace(query.ProjectID),
		DepartmentID: departmentFilter(sel, query.DepartmentID),
	})

	page, size := normalisePage(query.Page, query.PageSize)
	start, end := pageBounds(page, size, len(matched))

	views := make([]dto.AssetRequestView, 0, end-start)
	for _, req := range matched[start:end] {
		views = append(views, dto.AssetRequestView{
			AssetRequest:   req,
			StatusLabel:    req.Status.Label(),
			StatusColor:    req.Status.Color(),
			StatusTerminal: req.Status.IsTerminal(),
		})
	}

	return views, &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}, cacheHit, nil
}

// pageBounds returns the slice bounds of page within total items. Pages past
// the end are empty; the offset is never computed for them so huge page
// numbers cannot overflow.
func pageBounds(page, size, total int) (int, int) {
	if page < 1 || size < 1 || page-1 > total/size {
		return total, total
	}
	start := (page - 1) * size
	end := total
	if total-start > size {
		end = start + size
	}
	return start, end
}

// AssetRequestFilter selects requests; zero fields match everything.
type AssetRequestFilter struct {
	Statuses     []models.RequestStatus
	ProjectID    string
	DepartmentID string
}

// FilterAssetRequests keeps requests matching filter in input order.
func FilterAssetRequests(requests []models.AssetRequest, filter AssetRequestFilter) []models.AssetRequest {
	allowed := make(map[models.RequestStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		allowed[status] = struct{}{}
	}
	out := make([]models.AssetRequest, 0, len(requests))
	for _, req := range requests {
		if len(allowed) > 0 {
			if _, ok := allowed[req.Status]; !ok {
				continue
			}
		}
		if filter.ProjectID != "" && req.ProjectID() != filter.ProjectID {
			continue
		}
		if filter.DepartmentID != "" && req.DepartmentID() != filter.DepartmentID {
			continue
		}
		out = append(out, req)
	}
	return out
}

// departmentFilter narrows the asset manager listing when a department was
// named explicitly. Department listings are already scoped upstream.
func departmentFilter(sel models.ScopeSelection, requested string) string {
	if sel.Scope == models.ScopeDepartment {
		return ""
	}
	return strings.TrimSpace(requested)
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultRequestPageSize
	}
	if size > maxRequestPageSize {
		size = maxRequestPageSize
	}
	return page, size
}
