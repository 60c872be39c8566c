package services

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/providers"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospitalrouter/backend/pkg/errors"
	"github.com/zatekoja/hospitalrouter/backend/pkg/utils"
)

// Travel fallback reasons.
const (
	fallbackNoProvider    = "no_provider"
	fallbackProviderError = "provider_error"
)

// SelectionService picks the best hospital for a triaged patient.
type SelectionService struct {
	registry repositories.HospitalRegistry
	overlay  repositories.CapacityOverlayStore
	travel   providers.TravelTimeProvider
	filter   *EligibilityFilter
	scoring  *ScoringEngine
	metrics  *observability.Metrics
}

// NewSelectionService creates a new selection service. travel may be nil, in
// which case the registry's simulated travel times are used.
func NewSelectionService(
	registry repositories.HospitalRegistry,
	overlay repositories.CapacityOverlayStore,
	travel providers.TravelTimeProvider,
) *SelectionService {
	return &SelectionService{
		registry: registry,
		overlay:  overlay,
		travel:   travel,
		filter:   NewEligibilityFilter(),
		scoring:  NewScoringEngine(),
	}
}

// SetMetrics attaches application metrics
func (s *SelectionService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

type candidate struct {
	hospital *entities.Hospital
	eta      float64
	score    float64
}

// SelectBest returns the lowest-scoring eligible hospital, or nil when no
// hospital is eligible. Only registry failures are returned as errors.
func (s *SelectionService) SelectBest(ctx context.Context, assessment entities.TriageAssessment, latitude, longitude float64) (*entities.SelectionResult, error) {
	ctx, span := observability.StartSpan(ctx, "SelectionService.SelectBest")
	defer span.End()
	start := time.Now()
	critical := assessment.IsCritical()
	logger := observability.LoggerFromContext(ctx)

	observability.SetSpanAttributes(span,
		attribute.Int("triage.acuity", assessment.Acuity()),
		attribute.Bool("triage.critical", critical),
		attribute.String("triage.required_specialty", assessment.RequiredSpecialty),
	)

	hospitals, err := s.registry.Load(ctx)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSelection(ctx, s.metrics, observability.OutcomeDataSourceErr, critical, time.Since(start))
		return nil, err
	}

	overlays, err := s.overlay.Snapshot(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to read capacity overlay", err)
	}

	eligible := s.filter.Filter(hospitals, assessment, overlays)
	observability.SetSpanAttributes(span, attribute.Int("routing.eligible_count", len(eligible)))
	if len(eligible) == 0 {
		reasons := zerolog.Dict()
		for reason, n := range s.filter.Exclusions(hospitals, assessment, overlays) {
			reasons.Int(string(reason), n)
		}
		logger.Info().
			Int("acuity", assessment.Acuity()).
			Str("required_specialty", assessment.RequiredSpecialty).
			Dict("exclusions", reasons).
			Msg("No eligible hospital")
		observability.RecordSelection(ctx, s.metrics, observability.OutcomeNoEligible, critical, time.Since(start))
		return nil, nil
	}

	origin := entities.Location{Latitude: latitude, Longitude: longitude}
	live, source := s.estimateTravelTimes(ctx, origin, eligible)

	candidates := make([]candidate, 0, len(eligible))
	for _, h := range eligible {
		eta := h.SimulatedTravelMinutes
		if live != nil {
			var ok bool
			if eta, ok = live[h.ID()]; !ok {
				eta = providers.UnreachableTravelMinutes
			}
		}
		candidates = append(candidates, candidate{
			hospital: h,
			eta:      eta,
			score:    s.scoring.Score(h, eta, assessment, overlays[h.ID()]),
		})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(a.score, b.score)
	})

	best := candidates[0]
	result := buildResult(best, assessment, overlays[best.hospital.ID()], source)

	logger.Info().
		Str("hospital_id", result.HospitalID).
		Float64("routing_score", result.RoutingScore).
		Float64("eta_minutes", result.ETAMinutes).
		Str("travel_time_source", string(source)).
		Int("candidates", len(candidates)).
		Msg("Hospital selected")
	observability.SetSpanAttributes(span,
		attribute.String("routing.hospital_id", result.HospitalID),
		attribute.String("routing.travel_time_source", string(source)),
	)
	observability.RecordSelection(ctx, s.metrics, observability.OutcomeSelected, critical, time.Since(start))

	return result, nil
}

// estimateTravelTimes asks the live provider once for all candidates. A nil
// map means the simulated baseline applies.
func (s *SelectionService) estimateTravelTimes(ctx context.Context, origin entities.Location, hospitals []*entities.Hospital) (map[string]float64, entities.TravelTimeSource) {
	if s.travel == nil {
		observability.RecordTravelFallback(ctx, s.metrics, fallbackNoProvider)
		return nil, entities.TravelTimeSimulated
	}

	live, err := s.travel.EstimateTravelTimes(ctx, origin, hospitals)
	if err != nil || live == nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Int("hospitals", len(hospitals)).
			Msg("Live travel times unavailable, using simulated travel times")
		observability.RecordTravelFallback(ctx, s.metrics, fallbackProviderError)
		return nil, entities.TravelTimeSimulated
	}
	return live, entities.TravelTimeLive
}

func buildResult(c candidate, assessment entities.TriageAssessment, overlay entities.CapacityOverlay, source entities.TravelTimeSource) *entities.SelectionResult {
	h := c.hospital
	result := &entities.SelectionResult{
		HospitalID:        h.ID(),
		HospitalName:      h.Name,
		RoutingScore:      utils.Round(c.score, 2),
		ETAMinutes:        utils.Round(c.eta, 1),
		Latitude:          h.Location.Latitude,
		Longitude:         h.Location.Longitude,
		AvailableEDBeds:   h.AvailableEDBeds,
		AvailableICUBeds:  h.AvailableICUBeds,
		ERWaitMinutes:     h.ERWaitMinutes,
		TraumaLevel:       h.TraumaLevel,
		StrokeCenterLevel: h.StrokeCenterLevel,
		CardiacCathLab:    h.CardiacCathLab,
		SpecialistReady:   true,
		TravelTimeSource:  source,
	}

	if specialty := assessment.PrimarySpecialty(); specialty != entities.SpecialtyNone {
		load, ok := h.SpecialistLoad(specialty, overlay)
		result.SpecialistReady = ok
		if ok {
			rounded := utils.Round(load, 2)
			result.SpecialistLoad = &rounded
		}
	}
	return result
}

// ListHospitals returns the registry baseline.
func (s *SelectionService) ListHospitals(ctx context.Context) ([]*entities.Hospital, error) {
	return s.registry.Load(ctx)
}

// Capacity returns a hospital's baseline next to its overlay-adjusted capacity.
func (s *SelectionService) Capacity(ctx context.Context, hospitalID string) (*entities.HospitalCapacity, error) {
	hospitals, err := s.registry.Load(ctx)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(hospitals, func(h *entities.Hospital) bool { return h.ID() == hospitalID })
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("hospital not found: " + hospitalID)
	}
	h := hospitals[idx]

	overlay, err := s.overlay.Get(ctx, hospitalID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read capacity overlay", err)
	}

	loads := make(map[entities.Specialty]*float64, len(entities.TrackedSpecialties))
	for _, specialty := range entities.TrackedSpecialties {
		if load, ok := h.SpecialistLoad(specialty, overlay); ok {
			rounded := utils.Round(load, 2)
			loads[specialty] = &rounded
		} else {
			loads[specialty] = nil
		}
	}

	return &entities.HospitalCapacity{
		HospitalID:       h.ID(),
		BaselineEDBeds:   h.AvailableEDBeds,
		BaselineICUBeds:  h.AvailableICUBeds,
		EffectiveEDBeds:  h.EffectiveEDBeds(overlay),
		EffectiveICUBeds: h.EffectiveICUBeds(overlay),
		Overlay:          overlay,
		SpecialistLoads:  loads,
	}, nil
}
