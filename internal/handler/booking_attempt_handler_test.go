package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/middleware"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
)

type fakeAttemptSummary struct {
	since time.Time
	calls int
}

func (f *fakeAttemptSummary) Summary(_ context.Context, since time.Time) (*dto.AttemptSummaryResponse, error) {
	f.calls++
	f.since = since
	return &dto.AttemptSummaryResponse{
		Since:    since,
		Total:    3,
		Outcomes: []models.AttemptSummary{{Outcome: models.OutcomeBooked, Count: 2}, {Outcome: models.OutcomeConflict, Count: 1}},
	}, nil
}

// summaryRouter mounts the summary the way the gateway does, behind the staff role gate.
func summaryRouter(svc attemptSummaryService, session *models.AuthSession) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/bookings/attempts/summary", func(c *gin.Context) {
		c.Set(middleware.ContextSessionKey, session)
		c.Set(middleware.ContextUserKey, &models.JWTClaims{SessionID: session.ID, UserID: session.UserID, Role: session.Role})
		c.Next()
	}, middleware.RequireRoles(models.RoleUniversityStaff, models.RoleAdmin), NewBookingAttemptHandler(svc).Summary)
	return router
}

func TestBookingAttemptSummaryForbiddenForTalent(t *testing.T) {
	svc := &fakeAttemptSummary{}
	session := testSession()
	session.Role = models.RoleTalent

	rec := httptest.NewRecorder()
	summaryRouter(svc, session).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/attempts/summary", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, decodeEnvelope(t, rec).Error.Code)
	assert.Zero(t, svc.calls)
}

func TestBookingAttemptSummaryForStaff(t *testing.T) {
	svc := &fakeAttemptSummary{}
	session := testSession()
	session.Role = models.RoleUniversityStaff

	rec := httptest.NewRecorder()
	summaryRouter(svc, session).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/attempts/summary?since=2025-03-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), svc.since)

	var body dto.AttemptSummaryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.EqualValues(t, 3, body.Total)
	assert.Len(t, body.Outcomes, 2)
}

func TestBookingAttemptSummaryRejectsBadSince(t *testing.T) {
	svc := &fakeAttemptSummary{}
	session := testSession()
	session.Role = models.RoleAdmin

	c, rec := newTestContext(http.MethodGet, "/bookings/attempts/summary?since=yesterday", "", session)
	NewBookingAttemptHandler(svc).Summary(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Fields, "since")
	assert.Zero(t, svc.calls)
}
