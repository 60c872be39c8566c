package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// Mocks

type MockHospitalRegistry struct {
	mock.Mock
}

func (m *MockHospitalRegistry) Load(ctx context.Context) ([]*entities.Hospital, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hospital), args.Error(1)
}

type MockTravelTimeProvider struct {
	mock.Mock
}

func (m *MockTravelTimeProvider) EstimateTravelTimes(ctx context.Context, origin entities.Location, hospitals []*entities.Hospital) (map[string]float64, error) {
	args := m.Called(ctx, origin, hospitals)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

type MockOverlayStore struct {
	mock.Mock
}

func (m *MockOverlayStore) Get(ctx context.Context, hospitalID string) (entities.CapacityOverlay, error) {
	args := m.Called(ctx, hospitalID)
	return args.Get(0).(entities.CapacityOverlay), args.Error(1)
}

func (m *MockOverlayStore) Snapshot(ctx context.Context) (map[string]entities.CapacityOverlay, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]entities.CapacityOverlay), args.Error(1)
}

func (m *MockOverlayStore) Apply(ctx context.Context, hospitalID string, delta entities.CapacityOverlay) error {
	args := m.Called(ctx, hospitalID, delta)
	return args.Error(0)
}

// newHospital returns a general-purpose hospital with no specialty
// capabilities; tests override the fields they care about.
func newHospital(name string) *entities.Hospital {
	return &entities.Hospital{
		Name:                   name,
		Location:               entities.Location{Latitude: 30.27, Longitude: -97.74},
		AvailableEDBeds:        5,
		AvailableICUBeds:       4,
		ERWaitMinutes:          20,
		OnCallEDPhysicians:     3,
		TraumaLevel:            "N/A",
		StrokeCenterLevel:      "None",
		CardiacCathLab:         "No",
		PediatricSpecialty:     "No",
		SimulatedTravelMinutes: 10,
	}
}
