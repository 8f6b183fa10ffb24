package upstream

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsable(t *testing.T) {
	now := time.Now()

	assert.False(t, TokenUsable("", now))
	assert.True(t, TokenUsable("opaque-token", now))
	assert.True(t, TokenUsable(signedToken(t, 1, now.Add(time.Minute)), now))
	assert.False(t, TokenUsable(signedToken(t, 1, now.Add(-time.Minute)), now))
}

func TestTokenUserID(t *testing.T) {
	assert.Equal(t, "42", TokenUserID(signedToken(t, 42, time.Now().Add(time.Hour))))
	assert.Empty(t, TokenUserID("opaque"))
}

func TestCredentialsRotateKeepsRefreshWhenOmitted(t *testing.T) {
	creds := NewCredentials(TokenPair{Access: "a1", Refresh: "r1"})

	creds.rotate(TokenPair{Access: "a2"})
	access, generation := creds.Access()
	assert.Equal(t, "a2", access)
	assert.EqualValues(t, 1, generation)
	assert.Equal(t, "r1", creds.RefreshToken())

	creds.rotate(TokenPair{Access: "a3", Refresh: "r2"})
	assert.Equal(t, "r2", creds.RefreshToken())

	creds.Revoke()
	assert.True(t, creds.Revoked())
	access, _ = creds.Access()
	assert.Empty(t, access)
}

func TestParseAPIErrorShapes(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
		fields  []string
	}{
		{name: "error string", body: `{"error":"Only talents can book appointments"}`, message: "Only talents can book appointments"},
		{name: "detail", body: `{"detail":"Not found."}`, message: "Not found."},
		{name: "non field errors", body: `{"non_field_errors":["Booking deadline has passed"]}`, message: "Booking deadline has passed", fields: []string{"non_field_errors"}},
		{name: "field errors", body: `{"calendar_slot_id":["This slot is fully booked"]}`, fields: []string{"calendar_slot_id"}},
		{name: "bare list", body: `["This slot is not available"]`, message: "This slot is not available"},
		{name: "html", body: `<html>Bad Gateway</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := parseAPIError(http.StatusBadRequest, []byte(tc.body))
			assert.Equal(t, tc.message, apiErr.Message)
			if tc.fields == nil {
				assert.Empty(t, apiErr.Fields)
			} else {
				assert.Equal(t, tc.fields, apiErr.FieldNames())
			}
		})
	}
}
