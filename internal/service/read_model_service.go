package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/asset-desk-api/internal/models"
)

type borrowedAssetReader interface {
	List(ctx context.Context) ([]models.BorrowedAsset, error)
}

type assetRequestReader interface {
	ListForAssetManager(ctx context.Context) ([]models.AssetRequest, error)
	ListForDepartment(ctx context.Context, departmentID string) ([]models.AssetRequest, error)
}

// ReadModelService loads the two upstream read models, caching each per user
// because visibility follows the caller's token.
type ReadModelService struct {
	assets   borrowedAssetReader
	requests assetRequestReader
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// CacheOwner returns the identity cached views are keyed by. Claims whose
// signature was not checked get no owner, so they neither read nor populate
// another user's entries.
func CacheOwner(claims *models.JWTClaims) string {
	if claims == nil || !claims.Verified {
		return ""
	}
	return claims.Identity()
}

// NewReadModelService constructs the loader. A nil cache disables caching.
func NewReadModelService(assets borrowedAssetReader, requests assetRequestReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReadModelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadModelService{assets: assets, requests: requests, cache: cache, ttl: ttl, logger: logger}
}

// BorrowedAssets returns the borrowed assets visible to userID. An empty
// userID bypasses the cache.
func (s *ReadModelService) BorrowedAssets(ctx context.Context, userID string) ([]models.BorrowedAsset, bool, error) {
	cache := s.cacheFor(userID)
	key := CacheKey(CacheTagBorrowedAssets, userID)
	var cached []models.BorrowedAsset
	if hit, _ := cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, false, err
	}
	_ = cache.Set(ctx, key, assets, s.ttl)
	return assets, false, nil
}

// AssetRequests returns the request listing selected by sel.
func (s *ReadModelService) AssetRequests(ctx context.Context, userID string, sel models.ScopeSelection) ([]models.AssetRequest, bool, error) {
	cache := s.cacheFor(userID)
	key := CacheKey(CacheTagAssetRequests, userID, sel.Key())
	var cached []models.AssetRequest
	if hit, _ := cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	var (
		requests []models.AssetRequest
		err      error
	)
	if sel.Scope == models.ScopeDepartment {
		requests, err = s.requests.ListForDepartment(ctx, sel.DepartmentID)
	} else {
		requests, err = s.requests.ListForAssetManager(ctx)
	}
	if err != nil {
		return nil, false, err
	}
	_ = cache.Set(ctx, key, requests, s.ttl)
	return requests, false, nil
}

func (s *ReadModelService) cacheFor(userID string) *CacheService {
	if userID == "" {
		return nil
	}
	return s.cache
}

// Both fetches borrowed assets and requests concurrently. The first failure
// cancels the other fetch.
func (s *ReadModelService) Both(ctx context.Context, userID string, sel models.ScopeSelection) ([]models.BorrowedAsset, []models.AssetRequest, error) {
	var (
		assets   []models.BorrowedAsset
		requests []models.AssetRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assets, _, err = s.BorrowedAssets(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		requests, _, err = s.AssetRequests(gctx, userID, sel)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("read model fetch failed",
			zap.String("user_id", userID),
			zap.String("scope", sel.Key()),
			zap.Error(err),
		)
		return nil, nil, err
	}
	return assets, requests, nil
}
