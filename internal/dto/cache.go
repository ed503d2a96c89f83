package dto

// InvalidateCacheRequest captures POST /cache/invalidate payload.
type InvalidateCacheRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// InvalidateCacheResult reports what was dropped and the follow-up refresh.
type InvalidateCacheResult struct {
	Tags         []string `json:"tags"`
	RefreshJobID string   `json:"refreshJobId,omitempty"`
}
