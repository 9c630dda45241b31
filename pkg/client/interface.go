// Package client defines what the face locator needs from a vision backend.
package client

import (
	"context"
	"time"

	"github.com/menta2k/snapfx/pkg/types"
)

// DefaultTimeout bounds a backend call whose context has no deadline.
const DefaultTimeout = 5 * time.Minute

type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.LocateResult, error)
}

// WithDefaultTimeout adds DefaultTimeout to ctx unless it already has a deadline.
func WithDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
