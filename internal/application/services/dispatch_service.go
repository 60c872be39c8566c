package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospitalrouter/backend/pkg/errors"
)

// DispatchService records dispatches into the capacity overlay so later
// selections see the reduced capacity.
type DispatchService struct {
	overlay repositories.CapacityOverlayStore
	metrics *observability.Metrics
	now     func() time.Time
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(overlay repositories.CapacityOverlayStore) *DispatchService {
	return &DispatchService{
		overlay: overlay,
		now:     time.Now,
	}
}

// SetMetrics attaches application metrics
func (s *DispatchService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// RecordDispatch applies one dispatch to the hospital's overlay as a single
// atomic change. An empty hospital ID is a no-op.
func (s *DispatchService) RecordDispatch(ctx context.Context, hospitalID string, assessment entities.TriageAssessment) error {
	if hospitalID == "" {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "DispatchService.RecordDispatch")
	defer span.End()

	critical := assessment.IsCritical()
	observability.SetSpanAttributes(span,
		attribute.String("routing.hospital_id", hospitalID),
		attribute.Bool("triage.critical", critical),
	)

	delta := entities.DispatchDelta(assessment)
	if err := s.overlay.Apply(ctx, hospitalID, delta); err != nil {
		observability.RecordError(span, err)
		return apperrors.NewInternalError("failed to record dispatch", err)
	}

	observability.LoggerFromContext(ctx).Info().
		Str("hospital_id", hospitalID).
		Int("acuity", assessment.Acuity()).
		Int("ed_beds_delta", delta.EDBedsDelta).
		Int("icu_beds_delta", delta.ICUBedsDelta).
		Msg("Dispatch recorded")
	observability.RecordDispatch(ctx, s.metrics, critical)
	return nil
}

// Dispatch records a dispatch and returns its acknowledgement. It returns a
// nil record for an empty hospital ID.
func (s *DispatchService) Dispatch(ctx context.Context, hospitalID string, assessment entities.TriageAssessment) (*entities.DispatchRecord, error) {
	if hospitalID == "" {
		return nil, nil
	}
	if err := s.RecordDispatch(ctx, hospitalID, assessment); err != nil {
		return nil, err
	}

	specialties := assessment.DispatchSpecialties()
	if specialties == nil {
		specialties = []entities.Specialty{}
	}
	return &entities.DispatchRecord{
		DispatchID:  uuid.New().String(),
		HospitalID:  hospitalID,
		AcuityLevel: assessment.Acuity(),
		Critical:    assessment.IsCritical(),
		Specialties: specialties,
		RecordedAt:  s.now().UTC(),
	}, nil
}
