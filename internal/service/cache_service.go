package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

const cacheKeyPrefix = "asset-desk"

// CacheTag groups cache entries that are invalidated together.
type CacheTag string

const (
	CacheTagBorrowedAssets CacheTag = "BorrowedAssets"
	CacheTagAssetRequests  CacheTag = "AssetRequests"
	CacheTagOverview       CacheTag = "Overview"
)

// AllCacheTags lists every tag the gateway writes.
func AllCacheTags() []CacheTag {
	return []CacheTag{CacheTagBorrowedAssets, CacheTagAssetRequests, CacheTagOverview}
}

// ParseCacheTag matches raw case-insensitively against the known tags.
func ParseCacheTag(raw string) (CacheTag, bool) {
	for _, tag := range AllCacheTags() {
		if strings.EqualFold(string(tag), strings.TrimSpace(raw)) {
			return tag, true
		}
	}
	return "", false
}

// CacheKey builds a namespaced key under tag.
func CacheKey(tag CacheTag, parts ...string) string {
	segments := append([]string{cacheKeyPrefix, string(tag)}, parts...)
	return strings.Join(segments, ":")
}

func tagPattern(tag CacheTag) string {
	return fmt.Sprintf("%s:%s:*", cacheKeyPrefix, tag)
}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// dependentTags maps a read-model tag to the views computed from it.
var dependentTags = map[CacheTag][]CacheTag{
	CacheTagBorrowedAssets: {CacheTagOverview},
	CacheTagAssetRequests:  {CacheTagOverview},
}

// ExpandCacheTags adds the tags derived from each read model, keeping the
// order of first appearance and dropping repeats.
func ExpandCacheTags(tags ...CacheTag) []CacheTag {
	seen := make(map[CacheTag]bool, len(tags))
	expanded := make([]CacheTag, 0, len(tags)+1)
	add := func(tag CacheTag) {
		if !seen[tag] {
			seen[tag] = true
			expanded = append(expanded, tag)
		}
	}
	for _, tag := range tags {
		add(tag)
		for _, dependent := range dependentTags[tag] {
			add(dependent)
		}
	}
	return expanded
}

// InvalidateTags drops every entry stored under the given tags and under the
// views derived from them. It stops at the first failure.
func (s *CacheService) InvalidateTags(ctx context.Context, tags ...CacheTag) error {
	for _, tag := range ExpandCacheTags(tags...) {
		if err := s.Invalidate(ctx, tagPattern(tag)); err != nil {
			return err
		}
	}
	return nil
}
