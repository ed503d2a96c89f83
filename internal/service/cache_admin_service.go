package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/jobs"
	"github.com/noah-isme/asset-desk-api/pkg/upstream"
)

// OverviewRefreshJobType identifies overview refresh jobs on the queue.
const OverviewRefreshJobType = "overview_refresh"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type tagInvalidator interface {
	Enabled() bool
	InvalidateTags(ctx context.Context, tags ...CacheTag) error
}

// OverviewRefreshPayload carries what a background refresh needs to call the
// asset service on the user's behalf.
type OverviewRefreshPayload struct {
	Claims    models.JWTClaims
	Selection models.ScopeSelection
	Token     string
}

// CacheAdminService drops cached entries by tag and schedules a warm-up of the
// caller's overview.
type CacheAdminService struct {
	cache     tagInvalidator
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCacheAdminService constructs the service. A nil queue disables refreshes.
func NewCacheAdminService(cache tagInvalidator, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger) *CacheAdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheAdminService{cache: cache, queue: queue, validator: validate, logger: logger}
}

// Invalidate removes entries under the requested tags. When the cache is
// active a refresh of the caller's default overview is queued; failing to
// queue it is logged and does not fail the call.
func (s *CacheAdminService) Invalidate(ctx context.Context, claims *models.JWTClaims, req dto.InvalidateCacheRequest) (*dto.InvalidateCacheResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tags are required")
	}
	tags := make([]CacheTag, 0, len(req.Tags))
	names := make([]string, 0, len(req.Tags))
	for _, raw := range req.Tags {
		tag, ok := ParseCacheTag(raw)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown cache tag %q", raw))
		}
		tags = append(tags, tag)
		names = append(names, string(tag))
	}

	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate cache")
	}
	s.logger.Info("cache invalidated", zap.String("user_id", claims.Identity()), zap.Strings("tags", names))

	result := &dto.InvalidateCacheResult{Tags: names}
	if s.queue == nil || !s.cache.Enabled() {
		return result, nil
	}
	sel, err := ResolveScope(claims, "", "")
	if err != nil {
		return result, nil
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: OverviewRefreshJobType,
		Key:  OverviewRefreshJobType + ":" + claims.Identity() + ":" + sel.Key(),
		Payload: OverviewRefreshPayload{
			Claims:    *claims,
			Selection: sel,
			Token:     upstream.TokenFromContext(ctx),
		},
	}
	switch err := s.queue.Enqueue(job); {
	case err == nil:
		result.RefreshJobID = job.ID
	case errors.Is(err, jobs.ErrDuplicate):
		s.logger.Debug("overview refresh already queued", zap.String("key", job.Key))
	default:
		s.logger.Warn("failed to queue overview refresh", zap.String("job_id", job.ID), zap.Error(err))
	}
	return result, nil
}

type overviewRefresher interface {
	Refresh(ctx context.Context, claims *models.JWTClaims, sel models.ScopeSelection) error
}

// OverviewRefreshWorker bridges queue jobs to AssetOverviewService.Refresh.
type OverviewRefreshWorker struct {
	overview overviewRefresher
	logger   *zap.Logger
}

// NewOverviewRefreshWorker constructs the worker.
func NewOverviewRefreshWorker(overview overviewRefresher, logger *zap.Logger) *OverviewRefreshWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewRefreshWorker{overview: overview, logger: logger}
}

// Handle processes a queue job.
func (w *OverviewRefreshWorker) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != OverviewRefreshJobType {
		w.logger.Warn("ignoring job of unexpected type", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	payload, ok := job.Payload.(OverviewRefreshPayload)
	if !ok {
		w.logger.Warn("ignoring job with malformed payload", zap.String("job_id", job.ID))
		return nil
	}
	if payload.Token == "" {
		w.logger.Debug("skipping overview refresh without token", zap.String("job_id", job.ID))
		return nil
	}
	claims := payload.Claims
	ctx = upstream.WithToken(ctx, payload.Token)
	if err := w.overview.Refresh(ctx, &claims, payload.Selection); err != nil {
		// A rejected token will not become valid on retry.
		if errors.Is(err, appErrors.ErrUnauthorized) || errors.Is(err, appErrors.ErrForbidden) {
			w.logger.Warn("overview refresh rejected upstream", zap.String("job_id", job.ID), zap.Error(err))
			return nil
		}
		return err
	}
	w.logger.Debug("overview refreshed",
		zap.String("job_id", job.ID),
		zap.String("user_id", claims.Identity()),
		zap.String("scope", payload.Selection.Key()),
	)
	return nil
}
