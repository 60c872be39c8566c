package services

import (
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// Scoring weights. Lower scores are better.
const (
	travelWeight         = 1.0
	waitWeight           = 0.5
	edCapacityWeight     = 2.0
	staffWeight          = 0.3
	specialistLoadWeight = 20.0
	lowICUPenalty        = 50.0
	noSpecialistPenalty  = 500.0
	lowICUBedsThreshold  = 1
)

// ScoringEngine computes a desirability score per hospital.
type ScoringEngine struct{}

// NewScoringEngine creates a new scoring engine
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// Score combines travel time, wait time, ED capacity, staffing and specialist
// load. A critical patient is penalised for hospitals with at most one ICU bed
// left, and heavily penalised for hospitals with no specialist of the required
// type. Non-critical patients take no penalty for a missing specialist.
func (e *ScoringEngine) Score(h *entities.Hospital, etaMinutes float64, assessment entities.TriageAssessment, overlay entities.CapacityOverlay) float64 {
	critical := assessment.IsCritical()

	score := travelWeight*etaMinutes + waitWeight*h.ERWaitMinutes
	score -= edCapacityWeight * float64(h.EffectiveEDBeds(overlay))
	score -= staffWeight * float64(h.OnCallEDPhysicians)

	if critical && h.EffectiveICUBeds(overlay) <= lowICUBedsThreshold {
		score += lowICUPenalty
	}

	if specialty := assessment.PrimarySpecialty(); specialty != entities.SpecialtyNone {
		if load, ok := h.SpecialistLoad(specialty, overlay); ok {
			score += specialistLoadWeight * load
		} else if critical {
			score += noSpecialistPenalty
		}
	}
	return score
}
