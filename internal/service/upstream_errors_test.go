package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

func TestTranslateUpstream(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"not found keeps detail", &upstream.APIError{Status: http.StatusNotFound, Message: "Not found."}, appErrors.ErrNotFound.Code, "Not found."},
		{"forbidden", &upstream.APIError{Status: http.StatusForbidden, Message: "Only talents can view"}, appErrors.ErrForbidden.Code, "Only talents can view"},
		{"unauthorized after refresh", &upstream.APIError{Status: http.StatusUnauthorized}, appErrors.ErrReauthRequired.Code, appErrors.ErrReauthRequired.Message},
		{"reauth sentinel", fmt.Errorf("list: %w", upstream.ErrReauthRequired), appErrors.ErrReauthRequired.Code, appErrors.ErrReauthRequired.Message},
		{"conflict", &upstream.APIError{Status: http.StatusConflict, Message: "already cancelled"}, appErrors.ErrConflict.Code, "already cancelled"},
		{"throttled", &upstream.APIError{Status: http.StatusTooManyRequests}, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Message},
		{"bad gateway", &upstream.APIError{Status: http.StatusBadGateway, Message: "<html>"}, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Message},
		{"timeout", &upstream.TransportError{Op: "slots", Err: context.DeadlineExceeded}, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Message},
		{"dial failure", &upstream.TransportError{Op: "slots", Err: errors.New("refused")}, appErrors.ErrUpstream.Code, "failed to load slots"},
		{"gateway error passes through", appErrors.ErrSlotUnavailable, appErrors.ErrSlotUnavailable.Code, appErrors.ErrSlotUnavailable.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appErrors.FromError(translateUpstream(tt.err, "load slots"))
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestTranslateUpstreamCarriesFieldErrors(t *testing.T) {
	err := translateUpstream(&upstream.APIError{
		Status: http.StatusBadRequest,
		Fields: map[string][]string{"rating": {"Ensure this value is less than or equal to 5."}},
	}, "submit feedback")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "submit feedback was rejected", appErr.Message)
	assert.Equal(t, "Ensure this value is less than or equal to 5.", appErr.Fields["rating"])
}

func TestTranslateUpstreamNil(t *testing.T) {
	assert.NoError(t, translateUpstream(nil, "anything"))
}
