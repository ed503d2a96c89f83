package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

func overviewFixture() (*fakeAssetReader, *fakeRequestReader) {
	assets := &fakeAssetReader{assets: []models.BorrowedAsset{
		borrowed("A1", "T1", models.BorrowedAssetInUse),
		borrowed("A2", "T2", models.BorrowedAssetReturned),
		borrowed("A3", "T3", models.BorrowedAssetOverdue),
		borrowed("A4", "T1", models.BorrowedAssetReturned),
	}}
	requests := &fakeRequestReader{
		manager: []models.AssetRequest{
			requestFor("T1", "P1", "Zeta", "D1", "Dept1"),
			requestFor("T3", "P2", "Alpha", "D2", "Dept2"),
		},
		department: map[string][]models.AssetRequest{
			"D1": {requestFor("T1", "P1", "Zeta", "D1", "Dept1")},
		},
	}
	return assets, requests
}

func newOverviewService(assets *fakeAssetReader, requests *fakeRequestReader, repo CacheRepository, policy models.JoinPolicy) *AssetOverviewService {
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), repo != nil)
	loader := NewReadModelService(assets, requests, cache, time.Minute, zap.NewNop())
	svc := NewAssetOverviewService(loader, cache, NewMetricsService(), nil, AssetOverviewConfig{JoinPolicy: policy, CacheTTL: time.Minute}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAssetOverviewServiceOverview(t *testing.T) {
	assets, requests := overviewFixture()
	svc := newOverviewService(assets, requests, nil, models.JoinLastWins)

	overview, hit, err := svc.Overview(context.Background(), managerClaims(), dto.OverviewQuery{})
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, models.ScopeAssetManager, overview.Scope)
	assert.Equal(t, 4, overview.Total)
	assert.Equal(t, 2, overview.Active)
	assert.Equal(t, 1, overview.UnknownAssets)
	require.Len(t, overview.Projects, 3)
	assert.Equal(t, []string{"P2", "P1", models.UnknownProjectID}, []string{overview.Projects[0].ID, overview.Projects[1].ID, overview.Projects[2].ID})

	zeta := overview.Projects[1]
	assert.Equal(t, "Zeta", zeta.Title)
	assert.Equal(t, 2, zeta.Total)
	assert.Equal(t, 1, zeta.Active)
	require.Len(t, zeta.Departments, 1)
	require.Len(t, zeta.Departments[0].Assets, 2)
	assert.Equal(t, "A1", zeta.Departments[0].Assets[0].AssetID)
	assert.True(t, zeta.Departments[0].Assets[0].Active)
	assert.Equal(t, "A4", zeta.Departments[0].Assets[1].AssetID)
	assert.False(t, zeta.Departments[0].Assets[1].Active)
	assert.Equal(t, 1, requests.managerHits)
}

func TestAssetOverviewServiceActiveOnly(t *testing.T) {
	assets, requests := overviewFixture()
	svc := newOverviewService(assets, requests, nil, models.JoinLastWins)

	overview, _, err := svc.Overview(context.Background(), managerClaims(), dto.OverviewQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Total)
	assert.Equal(t, 2, overview.Active)
	assert.Equal(t, 0, overview.UnknownAssets)
	require.Len(t, overview.Projects, 2)
	for _, project := range overview.Projects {
		for _, dept := range project.Departments {
			for _, asset := range dept.Assets {
				assert.NotEqual(t, models.BorrowedAssetReturned, asset.Status)
			}
		}
	}
}

func TestAssetOverviewServiceDepartmentScope(t *testing.T) {
	assets, requests := overviewFixture()
	svc := newOverviewService(assets, requests, nil, models.JoinLastWins)

	overview, _, err := svc.Overview(context.Background(), staffClaims("D1"), dto.OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeDepartment, overview.Scope)
	assert.Equal(t, "D1", overview.DepartmentID)
	assert.Equal(t, []string{"D1"}, requests.deptHits)
	assert.Equal(t, 0, requests.managerHits)
	assert.Equal(t, 2, overview.UnknownAssets)
}

func TestAssetOverviewServiceCachesPerUserAndScope(t *testing.T) {
	assets, requests := overviewFixture()
	repo := newMemoryCacheRepo()
	svc := newOverviewService(assets, requests, repo, models.JoinLastWins)
	ctx := context.Background()

	first, hit, err := svc.Overview(ctx, managerClaims(), dto.OverviewQuery{})
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Overview(ctx, managerClaims(), dto.OverviewQuery{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Projects, second.Projects)
	assert.Equal(t, 1, assets.calls)

	_, hit, err = svc.Overview(ctx, managerClaims(), dto.OverviewQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, assets.calls, "read models come from cache")

	assert.True(t, repo.has(overviewCacheKey("am-1", models.ScopeSelection{Scope: models.ScopeAssetManager}, false)))
}

func TestAssetOverviewServiceCollectAll(t *testing.T) {
	assets := &fakeAssetReader{assets: []models.BorrowedAsset{borrowed("A1", "T1", models.BorrowedAssetInUse)}}
	requests := &fakeRequestReader{manager: []models.AssetRequest{
		requestFor("T1", "P1", "Proj1", "D1", "Dept1"),
		requestFor("T1", "P2", "Proj2", "D2", "Dept2"),
	}}
	svc := newOverviewService(assets, requests, nil, models.JoinCollectAll)

	overview, _, err := svc.Overview(context.Background(), managerClaims(), dto.OverviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, models.JoinCollectAll, overview.JoinPolicy)
	assert.Equal(t, []string{"T1"}, overview.DuplicateTaskIDs)
	assert.Len(t, overview.Projects, 2)
	assert.Equal(t, 2, overview.Total)
}

func TestAssetOverviewServiceErrors(t *testing.T) {
	assets, requests := overviewFixture()
	svc := newOverviewService(assets, requests, nil, models.JoinLastWins)

	_, _, err := svc.Overview(context.Background(), staffClaims("D1"), dto.OverviewQuery{Scope: models.ScopeAssetManager})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, _, err = svc.Overview(context.Background(), managerClaims(), dto.OverviewQuery{Scope: "everything"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	requests.err = appErrors.ErrUpstreamUnavailable
	_, _, err = svc.Overview(context.Background(), managerClaims(), dto.OverviewQuery{})
	assert.ErrorIs(t, err, appErrors.ErrUpstreamUnavailable)
}

func TestAssetOverviewServiceRefreshWritesBothVariants(t *testing.T) {
	assets, requests := overviewFixture()
	repo := newMemoryCacheRepo()
	svc := newOverviewService(assets, requests, repo, models.JoinLastWins)
	sel := models.ScopeSelection{Scope: models.ScopeAssetManager}

	require.NoError(t, svc.Refresh(context.Background(), managerClaims(), sel))
	assert.True(t, repo.has(overviewCacheKey("am-1", sel, false)))
	assert.True(t, repo.has(overviewCacheKey("am-1", sel, true)))

	assets.err = errors.New("down")
	require.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
	assert.Error(t, svc.Refresh(context.Background(), managerClaims(), sel))
}

func TestReadModelServiceCancelsSiblingFetch(t *testing.T) {
	assets := &fakeAssetReader{block: true}
	requests := &fakeRequestReader{err: appErrors.ErrUnauthorized}
	loader := NewReadModelService(assets, requests, nil, time.Minute, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, _, err := loader.Both(context.Background(), "u1", models.ScopeSelection{Scope: models.ScopeAssetManager})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked fetch was not cancelled")
	}
}

func TestProjectOverviewsOrdersUnknownLast(t *testing.T) {
	groups := models.ProjectGroups{
		models.UnknownProjectID: {Title: models.UnknownProjectTitle, Departments: map[string]*models.DepartmentGroup{
			models.UnknownDepartmentID: {Name: models.UnknownDepartmentName, Assets: []models.BorrowedAsset{borrowed("A9", "", models.BorrowedAssetInUse)}},
		}},
		"P2": {Title: "Bravo", Departments: map[string]*models.DepartmentGroup{
			models.UnknownDepartmentID: {Name: models.UnknownDepartmentName},
			"D2":                       {Name: "Ops"},
			"D1":                       {Name: "Design"},
		}},
		"P1": {Title: "Alpha", Departments: map[string]*models.DepartmentGroup{}},
	}

	projects := ProjectOverviews(groups)
	require.Len(t, projects, 3)
	assert.Equal(t, "P1", projects[0].ID)
	assert.Equal(t, "P2", projects[1].ID)
	assert.Equal(t, models.UnknownProjectID, projects[2].ID)
	require.Len(t, projects[1].Departments, 3)
	assert.Equal(t, "D1", projects[1].Departments[0].ID)
	assert.Equal(t, "D2", projects[1].Departments[1].ID)
	assert.Equal(t, models.UnknownDepartmentID, projects[1].Departments[2].ID)
}

func TestAssetOverviewServiceUnverifiedClaimsBypassCache(t *testing.T) {
	assets, requests := overviewFixture()
	repo := newMemoryCacheRepo()
	svc := newOverviewService(assets, requests, repo, models.JoinLastWins)
	ctx := context.Background()

	_, hit, err := svc.Overview(ctx, managerClaims(), dto.OverviewQuery{})
	require.NoError(t, err)
	assert.False(t, hit)

	// Same user id, but the signature was never checked.
	impersonator := managerClaims()
	impersonator.Verified = false

	for i := 0; i < 2; i++ {
		overview, hit, err := svc.Overview(ctx, impersonator, dto.OverviewQuery{})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, 4, overview.Total)
	}
	assert.Equal(t, 3, assets.calls, "unverified callers always reach the asset service")
	assert.False(t, repo.has(overviewCacheKey("", models.ScopeSelection{Scope: models.ScopeAssetManager}, false)))

	require.NoError(t, svc.Refresh(ctx, impersonator, models.ScopeSelection{Scope: models.ScopeAssetManager}))
	assert.Equal(t, 3, assets.calls)
}

func TestCacheOwner(t *testing.T) {
	assert.Equal(t, "am-1", CacheOwner(managerClaims()))
	assert.Empty(t, CacheOwner(&models.JWTClaims{UserID: "am-1", Role: models.RoleAdmin}))
	assert.Empty(t, CacheOwner(nil))
}
