package repository

import (
	"context"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

// upstreamDoer is the slice of the backend client the upstream-backed repositories need.
type upstreamDoer interface {
	Do(ctx context.Context, creds *upstream.Credentials, req upstream.Request, out interface{}) error
}
