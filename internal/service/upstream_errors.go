package service

import (
	"context"
	"errors"
	"net/http"

	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

// translateUpstream maps backend client failures onto gateway errors. The backend's
// own message is kept when it sent one.
func translateUpstream(err error, action string) error {
	if err == nil {
		return nil
	}

	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, upstream.ErrReauthRequired) {
		return appErrors.Wrap(err, appErrors.ErrReauthRequired.Code, appErrors.ErrReauthRequired.Status, appErrors.ErrReauthRequired.Message)
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		switch {
		case apiErr.Status == http.StatusNotFound:
			return wrapWithMessage(err, appErrors.ErrNotFound, message)
		case apiErr.Status == http.StatusForbidden:
			return wrapWithMessage(err, appErrors.ErrForbidden, message)
		case apiErr.Status == http.StatusUnauthorized:
			return wrapWithMessage(err, appErrors.ErrReauthRequired, "")
		case apiErr.Status == http.StatusConflict:
			return wrapWithMessage(err, appErrors.ErrConflict, message)
		case apiErr.Status == http.StatusTooManyRequests:
			return wrapWithMessage(err, appErrors.ErrRateLimited, message)
		case apiErr.Status >= 400 && apiErr.Status < 500:
			out := wrapWithMessage(err, appErrors.ErrValidation, message)
			for _, field := range apiErr.FieldNames() {
				out = appErrors.WithField(out, field, apiErr.FieldMessage(field))
			}
			if message == "" && len(out.Fields) > 0 {
				out.Message = action + " was rejected"
			}
			return out
		default:
			return wrapWithMessage(err, appErrors.ErrUpstream, "")
		}
	}

	var transportErr *upstream.TransportError
	if errors.As(err, &transportErr) && errors.Is(transportErr.Err, context.DeadlineExceeded) {
		return wrapWithMessage(err, appErrors.ErrUpstreamTimeout, "")
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to "+action)
}

func wrapWithMessage(err error, kind *appErrors.Error, message string) *appErrors.Error {
	if message == "" {
		message = kind.Message
	}
	return appErrors.Wrap(err, kind.Code, kind.Status, message)
}

// needsReauth reports whether err means the talent's upstream session is gone.
func needsReauth(err error) bool {
	return errors.Is(err, upstream.ErrReauthRequired) || errors.Is(err, appErrors.ErrReauthRequired)
}
