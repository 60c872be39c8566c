package repositories

import (
	"context"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// HospitalRegistry defines the interface for reading the hospital registry
type HospitalRegistry interface {
	// Load returns every hospital in registry order. Implementations cache the
	// result; callers must not mutate the returned records.
	Load(ctx context.Context) ([]*entities.Hospital, error)
}
