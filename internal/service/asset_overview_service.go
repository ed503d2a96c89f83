package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

type readModelLoader interface {
	Both(ctx context.Context, userID string, sel models.ScopeSelection) ([]models.BorrowedAsset, []models.AssetRequest, error)
}

// AssetOverviewConfig tunes grouping and caching of the overview.
type AssetOverviewConfig struct {
	JoinPolicy models.JoinPolicy
	CacheTTL   time.Duration
}

// GroupedOverview is the raw grouping result together with join diagnostics.
type GroupedOverview struct {
	Selection        models.ScopeSelection
	Groups           models.ProjectGroups
	DuplicateTaskIDs []string
}

// AssetOverviewService builds the borrowed-asset overview.
type AssetOverviewService struct {
	loader    readModelLoader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	cfg       AssetOverviewConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssetOverviewService constructs the service.
func NewAssetOverviewService(loader readModelLoader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, cfg AssetOverviewConfig, logger *zap.Logger) *AssetOverviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JoinPolicy != models.JoinCollectAll {
		cfg.JoinPolicy = models.JoinLastWins
	}
	return &AssetOverviewService{
		loader:    loader,
		cache:     cache,
		metrics:   metrics,
		validator: registerValidations(validate),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Overview returns the grouped overview for the caller. The boolean reports a
// cache hit.
func (s *AssetOverviewService) Overview(ctx context.Context, claims *models.JWTClaims, query dto.OverviewQuery) (*dto.BorrowedAssetOverview, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid overview query")
	}
	sel, err := ResolveScope(claims, query.Scope, query.DepartmentID)
	if err != nil {
		return nil, false, err
	}

	owner := CacheOwner(claims)
	cache := s.cache
	if owner == "" {
		cache = nil
	}
	key := overviewCacheKey(owner, sel, query.ActiveOnly)
	var cached dto.BorrowedAssetOverview
	if hit, _ := cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	grouped, err := s.group(ctx, owner, sel)
	if err != nil {
		return nil, false, err
	}
	overview := s.build(grouped, query.ActiveOnly)
	_ = cache.Set(ctx, key, overview, s.cfg.CacheTTL)
	return overview, false, nil
}

// Grouped returns the grouping for an already resolved selection, bypassing
// the overview cache.
func (s *AssetOverviewService) Grouped(ctx context.Context, claims *models.JWTClaims, scope models.RequestScope, departmentID string) (*GroupedOverview, error) {
	sel, err := ResolveScope(claims, scope, departmentID)
	if err != nil {
		return nil, err
	}
	return s.group(ctx, CacheOwner(claims), sel)
}

// Refresh recomputes and stores both overview variants for the caller.
func (s *AssetOverviewService) Refresh(ctx context.Context, claims *models.JWTClaims, sel models.ScopeSelection) error {
	owner := CacheOwner(claims)
	if !s.cache.Enabled() || owner == "" {
		return nil
	}
	grouped, err := s.group(ctx, owner, sel)
	if err != nil {
		return err
	}
	for _, activeOnly := range []bool{false, true} {
		key := overviewCacheKey(owner, sel, activeOnly)
		if err := s.cache.Set(ctx, key, s.build(grouped, activeOnly), s.cfg.CacheTTL); err != nil {
			return err
		}
	}
	return nil
}

// JoinPolicy reports the configured duplicate task id policy.
func (s *AssetOverviewService) JoinPolicy() models.JoinPolicy {
	return s.cfg.JoinPolicy
}

func (s *AssetOverviewService) group(ctx context.Context, userID string, sel models.ScopeSelection) (*GroupedOverview, error) {
	assets, requests, err := s.loader.Both(ctx, userID, sel)
	if err != nil {
		return nil, err
	}

	index := IndexRequestsByTask(requests)
	duplicates := index.DuplicateTaskIDs()
	if len(duplicates) > 0 {
		s.logger.Warn("asset requests share task ids",
			zap.String("join_policy", string(s.cfg.JoinPolicy)),
			zap.Strings("task_ids", duplicates),
		)
	}
	groups := groupWithIndex(assets, index, s.cfg.JoinPolicy)

	unknown := groups[models.UnknownProjectID].Count(nil)
	s.metrics.ObserveGrouping(groups.Count(nil)-unknown, unknown, len(duplicates))

	return &GroupedOverview{Selection: sel, Groups: groups, DuplicateTaskIDs: duplicates}, nil
}

func (s *AssetOverviewService) build(grouped *GroupedOverview, activeOnly bool) *dto.BorrowedAssetOverview {
	groups := grouped.Groups
	if activeOnly {
		groups = groups.Filter(models.ActiveAssets)
	}
	return &dto.BorrowedAssetOverview{
		Scope:            grouped.Selection.Scope,
		DepartmentID:     grouped.Selection.DepartmentID,
		JoinPolicy:       s.cfg.JoinPolicy,
		ActiveOnly:       activeOnly,
		Total:            groups.Count(nil),
		Active:           groups.Count(models.ActiveAssets),
		UnknownAssets:    groups[models.UnknownProjectID].Count(nil),
		DuplicateTaskIDs: grouped.DuplicateTaskIDs,
		Projects:         ProjectOverviews(groups),
		GeneratedAt:      s.now().UTC(),
	}
}

// ProjectOverviews flattens groups into a stable order: projects by title,
// departments by name, the unknown buckets last. Assets keep input order.
func ProjectOverviews(groups models.ProjectGroups) []dto.ProjectOverview {
	projects := make([]dto.ProjectOverview, 0, len(groups))
	for projectID, project := range groups {
		if project == nil {
			continue
		}
		view := dto.ProjectOverview{
			ID:          projectID,
			Title:       project.Title,
			Total:       project.Count(nil),
			Active:      project.Count(models.ActiveAssets),
			Departments: make([]dto.DepartmentOverview, 0, len(project.Departments)),
		}
		for deptID, dept := range project.Departments {
			if dept == nil {
				continue
			}
			assets := make([]dto.BorrowedAssetView, 0, len(dept.Assets))
			for _, asset := range dept.Assets {
				assets = append(assets, borrowedAssetView(asset))
			}
			view.Departments = append(view.Departments, dto.DepartmentOverview{
				ID:     deptID,
				Name:   dept.Name,
				Total:  dept.Count(nil),
				Active: dept.Count(models.ActiveAssets),
				Assets: assets,
			})
		}
		sort.Slice(view.Departments, func(i, j int) bool {
			return bucketLess(view.Departments[i].ID, view.Departments[i].Name, view.Departments[j].ID, view.Departments[j].Name, models.UnknownDepartmentID)
		})
		projects = append(projects, view)
	}
	sort.Slice(projects, func(i, j int) bool {
		return bucketLess(projects[i].ID, projects[i].Title, projects[j].ID, projects[j].Title, models.UnknownProjectID)
	})
	return projects
}

func bucketLess(idA, nameA, idB, nameB, unknownID string) bool {
	if (idA == unknownID) != (idB == unknownID) {
		return idB == unknownID
	}
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

func borrowedAssetView(asset models.BorrowedAsset) dto.BorrowedAssetView {
	return dto.BorrowedAssetView{
		AssetID:     asset.AssetID,
		TaskID:      asset.TaskID,
		Status:      asset.Status,
		Active:      asset.IsActive(),
		Description: asset.Description,
		BorrowTime:  asset.BorrowTime,
		StartTime:   asset.StartTime,
		EndTime:     asset.EndTime,
	}
}

func overviewCacheKey(userID string, sel models.ScopeSelection, activeOnly bool) string {
	return CacheKey(CacheTagOverview, userID, sel.Key(), "active="+strconv.FormatBool(activeOnly))
}
