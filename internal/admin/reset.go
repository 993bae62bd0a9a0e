// Package admin provides administrative operations for the record store.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ResetTimeout is the maximum duration for a reset.
const ResetTimeout = 30 * time.Second

// ErrNotConfirmed is returned when a destructive operation is run without
// confirmation.
var ErrNotConfirmed = errors.New("reset not confirmed")

// Resetter removes every record from a store and restarts its identities.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ResetAll truncates catalogs and products.
// This is a destructive operation - use with caution.
func ResetAll(ctx context.Context, r Resetter, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	start := time.Now()
	if err := r.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	slog.Warn("store reset", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
