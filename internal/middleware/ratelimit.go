package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/logger"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
)

// userLimiters hands out one token bucket per talent.
type userLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (s *userLimiters) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now

	// Buckets idle for ten minutes are full again and can be dropped.
	if len(s.limiters) > 1024 {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > 10*time.Minute {
				delete(s.limiters, k)
			}
		}
	}
	return entry.limiter
}

// RateLimitPerUser limits requests per authenticated talent, falling back to the
// client IP. perMinute <= 0 disables the limit.
func RateLimitPerUser(perMinute, burst int, log *zap.Logger) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	store := &userLimiters{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		limiters: make(map[string]*limiterEntry),
	}

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if user := c.GetString(logger.UserIDKey); user != "" {
			key = "user:" + user
		}
		if !store.get(key, time.Now()).Allow() {
			log.Warn("rate limit exceeded", zap.String("key", key), zap.String("path", c.FullPath()))
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, "too many booking attempts, try again shortly"))
			c.Abort()
			return
		}
		c.Next()
	}
}
