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
	"github.com/noah-isme/asset-desk-api/pkg/jobs"
	"github.com/noah-isme/asset-desk-api/pkg/upstream"
)

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type recordingRefresher struct {
	claims *models.JWTClaims
	sel    models.ScopeSelection
	token  string
	err    error
}

func (r *recordingRefresher) Refresh(ctx context.Context, claims *models.JWTClaims, sel models.ScopeSelection) error {
	r.claims = claims
	r.sel = sel
	r.token = upstream.TokenFromContext(ctx)
	return r.err
}

func TestCacheAdminServiceInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, CacheKey(CacheTagOverview, "am-1", "asset-manager"), "x", 0))
	require.NoError(t, cache.Set(ctx, CacheKey(CacheTagBorrowedAssets, "am-1"), "y", 0))

	queue := &recordingQueue{}
	svc := NewCacheAdminService(cache, queue, nil, zap.NewNop())

	result, err := svc.Invalidate(upstream.WithToken(ctx, "tok"), managerClaims(), dto.InvalidateCacheRequest{Tags: []string{"overview"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Overview"}, result.Tags)
	assert.False(t, repo.has(CacheKey(CacheTagOverview, "am-1", "asset-manager")))
	assert.True(t, repo.has(CacheKey(CacheTagBorrowedAssets, "am-1")))

	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, result.RefreshJobID, job.ID)
	assert.Equal(t, OverviewRefreshJobType, job.Type)
	payload, ok := job.Payload.(OverviewRefreshPayload)
	require.True(t, ok)
	assert.Equal(t, "tok", payload.Token)
	assert.Equal(t, models.ScopeAssetManager, payload.Selection.Scope)
}

func TestCacheAdminServiceRejectsUnknownTags(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewCacheAdminService(cache, nil, nil, zap.NewNop())

	_, err := svc.Invalidate(context.Background(), managerClaims(), dto.InvalidateCacheRequest{Tags: []string{"Overview", "Everything"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Invalidate(context.Background(), managerClaims(), dto.InvalidateCacheRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCacheAdminServiceToleratesQueueFailures(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)

	for _, queueErr := range []error{jobs.ErrDuplicate, jobs.ErrFull} {
		svc := NewCacheAdminService(cache, &recordingQueue{err: queueErr}, nil, zap.NewNop())
		result, err := svc.Invalidate(context.Background(), managerClaims(), dto.InvalidateCacheRequest{Tags: []string{"AssetRequests"}})
		require.NoError(t, err)
		assert.Empty(t, result.RefreshJobID)
	}
}

func TestCacheAdminServiceSkipsRefreshWhenCacheDisabled(t *testing.T) {
	queue := &recordingQueue{}
	svc := NewCacheAdminService(NewCacheService(nil, nil, 0, nil, false), queue, nil, zap.NewNop())

	result, err := svc.Invalidate(context.Background(), managerClaims(), dto.InvalidateCacheRequest{Tags: []string{"BorrowedAssets"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"BorrowedAssets"}, result.Tags)
	assert.Empty(t, queue.jobs)
}

func TestOverviewRefreshWorkerHandle(t *testing.T) {
	refresher := &recordingRefresher{}
	worker := NewOverviewRefreshWorker(refresher, zap.NewNop())
	sel := models.ScopeSelection{Scope: models.ScopeDepartment, DepartmentID: "D1"}

	err := worker.Handle(context.Background(), jobs.Job{
		ID:      "j1",
		Type:    OverviewRefreshJobType,
		Payload: OverviewRefreshPayload{Claims: *staffClaims("D1"), Selection: sel, Token: "tok"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", refresher.token)
	assert.Equal(t, sel, refresher.sel)
	assert.Equal(t, "staff-1", refresher.claims.Identity())

	refresher.err = appErrors.ErrUnauthorized
	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{Type: OverviewRefreshJobType, Payload: OverviewRefreshPayload{Token: "tok"}}))

	refresher.err = errors.New("upstream down")
	assert.Error(t, worker.Handle(context.Background(), jobs.Job{Type: OverviewRefreshJobType, Payload: OverviewRefreshPayload{Token: "tok"}}))

	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{Type: "other"}))
	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{Type: OverviewRefreshJobType, Payload: "bad"}))
}
