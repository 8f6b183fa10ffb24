package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/middleware"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type apiEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *apiError              `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func testSession() *models.AuthSession {
	now := time.Now()
	return &models.AuthSession{
		ID:          "sess-1",
		UserID:      "42",
		Email:       "talent@example.edu",
		Credentials: upstream.NewCredentials(upstream.TokenPair{Access: "a", Refresh: "r"}),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

// newTestContext builds a gin context; a non-nil session is attached the way the JWT middleware does.
func newTestContext(method, target, body string, session *models.AuthSession) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		c.Set(middleware.ContextSessionKey, session)
		c.Set(middleware.ContextUserKey, &models.JWTClaims{SessionID: session.ID, UserID: session.UserID, Email: session.Email, Role: session.Role})
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
