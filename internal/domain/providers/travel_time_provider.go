package providers

import (
	"context"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// UnreachableTravelMinutes is reported for a hospital the live provider could not route to.
const UnreachableTravelMinutes = 999.0

// TravelTimeProvider defines the interface for live travel time estimates
type TravelTimeProvider interface {
	// EstimateTravelTimes returns minutes per hospital ID from origin. Any
	// error means no live data at all; callers fall back to simulated times.
	EstimateTravelTimes(ctx context.Context, origin entities.Location, hospitals []*entities.Hospital) (map[string]float64, error)
}
