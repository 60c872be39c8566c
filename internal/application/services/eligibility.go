package services

import (
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// ExclusionReason explains why a hospital failed eligibility.
type ExclusionReason string

const (
	ExclusionNone          ExclusionReason = ""
	ExclusionDiverted      ExclusionReason = "ed_diversion"
	ExclusionNoCapability  ExclusionReason = "missing_capability"
	ExclusionNoICUCapacity ExclusionReason = "no_icu_capacity"
)

// EligibilityFilter removes hospitals that cannot accept the patient.
type EligibilityFilter struct{}

// NewEligibilityFilter creates a new eligibility filter
func NewEligibilityFilter() *EligibilityFilter {
	return &EligibilityFilter{}
}

// Filter returns the eligible hospitals in their original order. An empty
// result is a normal outcome meaning no hospital can take the patient.
func (f *EligibilityFilter) Filter(hospitals []*entities.Hospital, assessment entities.TriageAssessment, overlays map[string]entities.CapacityOverlay) []*entities.Hospital {
	capability := assessment.RequiredCapability()
	critical := assessment.IsCritical()

	out := make([]*entities.Hospital, 0, len(hospitals))
	for _, h := range hospitals {
		if exclusion(h, capability, critical, overlays[h.ID()]) == ExclusionNone {
			out = append(out, h)
		}
	}
	return out
}

// Check reports why a single hospital would be excluded, or ExclusionNone.
func (f *EligibilityFilter) Check(h *entities.Hospital, assessment entities.TriageAssessment, overlay entities.CapacityOverlay) ExclusionReason {
	return exclusion(h, assessment.RequiredCapability(), assessment.IsCritical(), overlay)
}

// Exclusions counts, per reason, why each hospital was rejected. Eligible
// hospitals are not counted.
func (f *EligibilityFilter) Exclusions(hospitals []*entities.Hospital, assessment entities.TriageAssessment, overlays map[string]entities.CapacityOverlay) map[ExclusionReason]int {
	counts := make(map[ExclusionReason]int)
	for _, h := range hospitals {
		if reason := f.Check(h, assessment, overlays[h.ID()]); reason != ExclusionNone {
			counts[reason]++
		}
	}
	return counts
}

func exclusion(h *entities.Hospital, capability entities.Capability, critical bool, overlay entities.CapacityOverlay) ExclusionReason {
	if h.EDDiversion {
		return ExclusionDiverted
	}
	if !h.HasCapability(capability) {
		return ExclusionNoCapability
	}
	if critical && h.EffectiveICUBeds(overlay) <= 0 {
		return ExclusionNoICUCapacity
	}
	return ExclusionNone
}
