package repositories

import (
	"context"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// CapacityOverlayStore defines the interface for the dispatch capacity overlay.
// Every Apply is atomic: readers see all of a dispatch's deltas or none.
type CapacityOverlayStore interface {
	// Get returns the overlay for one hospital (zero value when none recorded)
	Get(ctx context.Context, hospitalID string) (entities.CapacityOverlay, error)

	// Snapshot returns a consistent copy of every recorded overlay
	Snapshot(ctx context.Context) (map[string]entities.CapacityOverlay, error)

	// Apply adds delta to the hospital's overlay, creating it if needed
	Apply(ctx context.Context, hospitalID string, delta entities.CapacityOverlay) error
}
