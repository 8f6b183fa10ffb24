package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	reqid "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	requestStartKey = "request_started_at"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta stamps the request start time and opens the meta bag that
// handlers fill before writing the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records one meta entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta, ok := c.Get(responseMetaKey)
	typed, _ := meta.(map[string]interface{})
	if !ok || typed == nil {
		typed = map[string]interface{}{}
		c.Set(responseMetaKey, typed)
	}
	typed[key] = value
}

// SetCacheHit records whether the payload came from the catalog cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// ExtractMeta returns a copy of the recorded meta with request_id and
// processing_time_ms filled in. It returns nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	recorded, _ := raw.(map[string]interface{})
	if recorded == nil {
		return nil
	}

	out := make(map[string]interface{}, len(recorded)+2)
	for k, v := range recorded {
		out[k] = v
	}
	if id := reqid.Value(c); id != "" {
		out["request_id"] = id
	}
	if started, ok := c.Get(requestStartKey); ok {
		if at, ok := started.(time.Time); ok {
			out["processing_time_ms"] = time.Since(at).Milliseconds()
		}
	}
	return out
}
