package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/logger"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextSessionKey stores the resolved *models.AuthSession.
	ContextSessionKey = "authSession"
)

// SessionAuthenticator resolves a gateway access token to a live session.
type SessionAuthenticator interface {
	Authenticate(token string) (*models.JWTClaims, *models.AuthSession, error)
}

// JWT protects routes by requiring a valid access token bound to a live session.
func JWT(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, session, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextSessionKey, session)
		c.Set(logger.UserIDKey, claims.UserID)
		c.Next()
	}
}
