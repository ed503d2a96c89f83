package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Keys surfaced in the envelope's meta object.
const (
	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
)

const (
	responseMetaKey  = "response_meta"
	requestStartedAt = "response_meta_started_at"
)

// WithResponseMeta prepares per-request meta. Overview and request listing
// handlers report through it whether the read models came from redis.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartedAt, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit marks whether the response was served from the overview or
// read model cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c, true)[MetaCacheHit] = hit
}

// ExtractMeta returns the meta gathered so far, stamped with the time spent
// since WithResponseMeta ran. It is nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFor(c, false)
	if meta == nil {
		return nil
	}
	if value, ok := c.Get(requestStartedAt); ok {
		if startedAt, ok := value.(time.Time); ok {
			meta[MetaProcessingTime] = time.Since(startedAt).Milliseconds()
		}
	}
	return meta
}

func metaFor(c *gin.Context, create bool) map[string]interface{} {
	if c == nil {
		if create {
			return map[string]interface{}{}
		}
		return nil
	}
	if value, ok := c.Get(responseMetaKey); ok {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	if !create {
		return nil
	}
	meta := map[string]interface{}{}
	c.Set(responseMetaKey, meta)
	return meta
}
