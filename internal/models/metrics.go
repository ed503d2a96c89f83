package models

import "time"

// MetricsSnapshot summarises gateway health counters for operators.
type MetricsSnapshot struct {
	CacheHitRatio             float64   `json:"cacheHitRatio"`
	CacheHits                 uint64    `json:"cacheHits"`
	CacheMisses               uint64    `json:"cacheMisses"`
	RequestsTotal             uint64    `json:"requestsTotal"`
	AverageRequestDurationMs  float64   `json:"averageRequestDurationMs"`
	UpstreamRequestsTotal     uint64    `json:"upstreamRequestsTotal"`
	UpstreamFailuresTotal     uint64    `json:"upstreamFailuresTotal"`
	AverageUpstreamDurationMs float64   `json:"averageUpstreamDurationMs"`
	UnknownBucketAssets       uint64    `json:"unknownBucketAssets"`
	DuplicateTaskIDs          uint64    `json:"duplicateTaskIds"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generatedAt"`
}
