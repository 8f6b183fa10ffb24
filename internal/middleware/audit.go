package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
)

// ActionRecorder accepts gateway action records.
type ActionRecorder interface {
	RecordAction(log models.AuditLog)
}

// Audit records the action after the handler ran. Failed requests are recorded too,
// with their status. The :id route parameter, when present, becomes the resource id.
func Audit(recorder ActionRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		entry := models.AuditLog{
			Action:    action,
			Resource:  resource,
			Status:    c.Writer.Status(),
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			LatencyMs: time.Since(start).Milliseconds(),
		}
		if claims, ok := c.Get(ContextUserKey); ok {
			if user, ok := claims.(*models.JWTClaims); ok {
				userID := user.UserID
				entry.UserID = &userID
			}
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		recorder.RecordAction(entry)
	}
}
