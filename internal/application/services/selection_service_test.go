package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/overlay"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/hospitalrouter/backend/pkg/errors"
)

const (
	testLat = 30.2672
	testLon = -97.7431
)

func newRegistry(hospitals ...*entities.Hospital) *MockHospitalRegistry {
	registry := new(MockHospitalRegistry)
	registry.On("Load", mock.Anything).Return(hospitals, nil)
	return registry
}

func TestSelectBest_PicksLowestScore(t *testing.T) {
	near := newHospital("Near")
	near.SimulatedTravelMinutes = 5
	far := newHospital("Far")
	far.SimulatedTravelMinutes = 30

	service := NewSelectionService(newRegistry(far, near), overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{AcuityLevel: 3}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Near", result.HospitalID)
	assert.Equal(t, "Near", result.HospitalName)
	assert.Equal(t, 5.0, result.ETAMinutes)
	assert.Equal(t, entities.TravelTimeSimulated, result.TravelTimeSource)
	assert.True(t, result.SpecialistReady)
	assert.Nil(t, result.SpecialistLoad)
}

func TestSelectBest_TiesKeepRegistryOrder(t *testing.T) {
	first := newHospital("First")
	second := newHospital("Second")

	service := NewSelectionService(newRegistry(first, second), overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	require.NoError(t, err)
	assert.Equal(t, "First", result.HospitalID)
}

func TestSelectBest_CriticalDispatchRaisesScore(t *testing.T) {
	h := newHospital("Only")
	h.AvailableICUBeds = 3
	store := overlay.NewMemoryStore()
	service := NewSelectionService(newRegistry(h), store, nil)
	dispatch := NewDispatchService(store)
	critical := entities.TriageAssessment{AcuityLevel: 1}
	ctx := context.Background()

	before, err := service.SelectBest(ctx, critical, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, before)

	require.NoError(t, dispatch.RecordDispatch(ctx, "Only", critical))

	after, err := service.SelectBest(ctx, critical, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Greater(t, after.RoutingScore, before.RoutingScore)
	assert.Equal(t, h.AvailableEDBeds, after.AvailableEDBeds, "result reports the registry baseline")
}

func TestSelectBest_CriticalDispatchExhaustsICU(t *testing.T) {
	h := newHospital("Single ICU")
	h.AvailableICUBeds = 1
	store := overlay.NewMemoryStore()
	service := NewSelectionService(newRegistry(h), store, nil)
	critical := entities.TriageAssessment{AcuityLevel: 2}
	ctx := context.Background()

	result, err := service.SelectBest(ctx, critical, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NoError(t, NewDispatchService(store).RecordDispatch(ctx, "Single ICU", critical))

	result, err = service.SelectBest(ctx, critical, testLat, testLon)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSelectBest_SpecialistLoadAfterDispatch(t *testing.T) {
	h := newHospital("Heart Institute")
	h.CardiacCathLab = "Yes"
	h.Specialists = map[entities.Specialty]entities.SpecialistStaffing{
		entities.SpecialtyCardiology: {Doctors: 2, Patients: 4},
	}
	store := overlay.NewMemoryStore()
	service := NewSelectionService(newRegistry(h), store, nil)
	ctx := context.Background()

	require.NoError(t, NewDispatchService(store).RecordDispatch(ctx, "Heart Institute", entities.TriageAssessment{
		AcuityLevel:         3,
		RequiredSpecialties: []string{"Cardiology"},
	}))

	result, err := service.SelectBest(ctx, entities.TriageAssessment{AcuityLevel: 3, RequiredSpecialty: "Cardiology"}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.SpecialistReady)
	require.NotNil(t, result.SpecialistLoad)
	assert.Equal(t, 2.5, *result.SpecialistLoad)
}

func TestSelectBest_CardiologyDoesNotRequireCathLab(t *testing.T) {
	h := newHospital("Community")
	h.Specialists = map[entities.Specialty]entities.SpecialistStaffing{
		entities.SpecialtyCardiology: {Doctors: 1, Patients: 1},
	}

	service := NewSelectionService(newRegistry(h), overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{AcuityLevel: 3, RequiredSpecialty: "Cardiology"}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Community", result.HospitalID)
	require.NotNil(t, result.SpecialistLoad)
	assert.Equal(t, 1.0, *result.SpecialistLoad)
}

func TestSelectBest_NoSpecialistIsNotReady(t *testing.T) {
	h := newHospital("Trauma Center")
	h.TraumaLevel = "Level I"

	service := NewSelectionService(newRegistry(h), overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{AcuityLevel: 4, RequiredSpecialty: "Trauma"}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.SpecialistReady)
	assert.Nil(t, result.SpecialistLoad)
}

func TestSelectBest_DeterministicWithoutProvider(t *testing.T) {
	a := newHospital("A")
	a.SimulatedTravelMinutes = 14.25
	b := newHospital("B")
	b.SimulatedTravelMinutes = 9.75

	service := NewSelectionService(newRegistry(a, b), overlay.NewMemoryStore(), nil)
	assessment := entities.TriageAssessment{AcuityLevel: 3}

	first, err := service.SelectBest(context.Background(), assessment, testLat, testLon)
	require.NoError(t, err)
	second, err := service.SelectBest(context.Background(), assessment, testLat, testLon)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSelectBest_NoEligibleHospital(t *testing.T) {
	service := NewSelectionService(newRegistry(newHospital("Adult Only")), overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{AcuityLevel: 3, RequiredSpecialty: "Pediatrics"}, testLat, testLon)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestSelectBest_Rounding(t *testing.T) {
	h := &entities.Hospital{
		Name:                   "Precise",
		AvailableICUBeds:       3,
		SimulatedTravelMinutes: 12.345,
	}

	service := NewSelectionService(newRegistry(h), overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{AcuityLevel: 3}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	// 12.345 is stored just below the tie.
	assert.Equal(t, 12.34, result.RoutingScore)
	assert.Equal(t, 12.3, result.ETAMinutes)
}

func TestSelectBest_LiveTravelTimes(t *testing.T) {
	a := newHospital("A")
	b := newHospital("B")
	travel := new(MockTravelTimeProvider)
	travel.On("EstimateTravelTimes", mock.Anything, entities.Location{Latitude: testLat, Longitude: testLon}, []*entities.Hospital{a, b}).
		Return(map[string]float64{"B": 4}, nil).Once()

	service := NewSelectionService(newRegistry(a, b), overlay.NewMemoryStore(), travel)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "B", result.HospitalID)
	assert.Equal(t, 4.0, result.ETAMinutes)
	assert.Equal(t, entities.TravelTimeLive, result.TravelTimeSource)
	travel.AssertExpectations(t)
}

func TestSelectBest_MissingLiveEntryIsUnreachable(t *testing.T) {
	only := newHospital("Only")
	travel := new(MockTravelTimeProvider)
	travel.On("EstimateTravelTimes", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]float64{}, nil)

	service := NewSelectionService(newRegistry(only), overlay.NewMemoryStore(), travel)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, providers.UnreachableTravelMinutes, result.ETAMinutes)
	assert.Equal(t, entities.TravelTimeLive, result.TravelTimeSource)
}

func TestSelectBest_ProviderFailureFallsBack(t *testing.T) {
	h := newHospital("Fallback")
	h.SimulatedTravelMinutes = 7
	travel := new(MockTravelTimeProvider)
	travel.On("EstimateTravelTimes", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("distance matrix status REQUEST_DENIED"))

	service := NewSelectionService(newRegistry(h), overlay.NewMemoryStore(), travel)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 7.0, result.ETAMinutes)
	assert.Equal(t, entities.TravelTimeSimulated, result.TravelTimeSource)
}

func TestSelectBest_NoTravelCallWhenNothingEligible(t *testing.T) {
	diverted := newHospital("Diverted")
	diverted.EDDiversion = true
	travel := new(MockTravelTimeProvider)

	service := NewSelectionService(newRegistry(diverted), overlay.NewMemoryStore(), travel)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	require.NoError(t, err)
	assert.Nil(t, result)
	travel.AssertNotCalled(t, "EstimateTravelTimes", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectBest_RegistryFailure(t *testing.T) {
	registry := new(MockHospitalRegistry)
	registry.On("Load", mock.Anything).Return(nil, apperrors.NewDataSourceError("failed to load hospital registry", errors.New("connection refused")))

	service := NewSelectionService(registry, overlay.NewMemoryStore(), nil)

	result, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataSource))
}

func TestSelectBest_ReadsOverlayOnce(t *testing.T) {
	h := newHospital("Snapshot")
	store := new(MockOverlayStore)
	store.On("Snapshot", mock.Anything).Return(map[string]entities.CapacityOverlay{}, nil).Once()

	service := NewSelectionService(newRegistry(h), store, nil)

	_, err := service.SelectBest(context.Background(), entities.TriageAssessment{}, testLat, testLon)
	require.NoError(t, err)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCapacity(t *testing.T) {
	h := newHospital("Capacity")
	h.AvailableICUBeds = 2
	h.Specialists = map[entities.Specialty]entities.SpecialistStaffing{
		entities.SpecialtyCardiology: {Doctors: 3, Patients: 2},
		entities.SpecialtyTrauma:     {Doctors: 0, Patients: 1},
	}
	store := overlay.NewMemoryStore()
	service := NewSelectionService(newRegistry(h), store, nil)
	ctx := context.Background()

	require.NoError(t, NewDispatchService(store).RecordDispatch(ctx, "Capacity", entities.TriageAssessment{AcuityLevel: 1, RequiredSpecialty: "STEMI"}))

	capacity, err := service.Capacity(ctx, "Capacity")
	require.NoError(t, err)
	assert.Equal(t, 5, capacity.BaselineEDBeds)
	assert.Equal(t, 4, capacity.EffectiveEDBeds)
	assert.Equal(t, 2, capacity.BaselineICUBeds)
	assert.Equal(t, 1, capacity.EffectiveICUBeds)
	require.NotNil(t, capacity.SpecialistLoads[entities.SpecialtyCardiology])
	assert.Equal(t, 1.0, *capacity.SpecialistLoads[entities.SpecialtyCardiology])
	assert.Nil(t, capacity.SpecialistLoads[entities.SpecialtyTrauma])

	_, err = service.Capacity(ctx, "Unknown")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
