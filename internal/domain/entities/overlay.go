package entities

// CapacityOverlay holds cumulative capacity deltas caused by dispatches to one
// hospital. Deltas are added to the hospital baseline when read; bed deltas
// only go down and specialist patient deltas only go up.
type CapacityOverlay struct {
	EDBedsDelta             int               `json:"ed_beds_delta"`
	ICUBedsDelta            int               `json:"icu_beds_delta"`
	SpecialistPatientsDelta map[Specialty]int `json:"specialist_patients_delta,omitempty"`
}

// SpecialistDelta returns the patient delta for a specialty.
func (o CapacityOverlay) SpecialistDelta(s Specialty) int {
	if o.SpecialistPatientsDelta == nil {
		return 0
	}
	return o.SpecialistPatientsDelta[s]
}

// Add returns the sum of o and other. Neither operand is modified.
func (o CapacityOverlay) Add(other CapacityOverlay) CapacityOverlay {
	out := CapacityOverlay{
		EDBedsDelta:  o.EDBedsDelta + other.EDBedsDelta,
		ICUBedsDelta: o.ICUBedsDelta + other.ICUBedsDelta,
	}
	if len(o.SpecialistPatientsDelta) > 0 || len(other.SpecialistPatientsDelta) > 0 {
		out.SpecialistPatientsDelta = make(map[Specialty]int, len(o.SpecialistPatientsDelta)+len(other.SpecialistPatientsDelta))
		for s, d := range o.SpecialistPatientsDelta {
			out.SpecialistPatientsDelta[s] += d
		}
		for s, d := range other.SpecialistPatientsDelta {
			out.SpecialistPatientsDelta[s] += d
		}
	}
	return out
}

// Clone returns a deep copy.
func (o CapacityOverlay) Clone() CapacityOverlay {
	return CapacityOverlay{}.Add(o)
}

// IsZero reports whether the overlay carries no deltas.
func (o CapacityOverlay) IsZero() bool {
	if o.EDBedsDelta != 0 || o.ICUBedsDelta != 0 {
		return false
	}
	for _, d := range o.SpecialistPatientsDelta {
		if d != 0 {
			return false
		}
	}
	return true
}

// DispatchDelta builds the overlay change for sending one patient with the
// given assessment: one ED bed, one ICU bed when critical, and one patient per
// dispatch specialty.
func DispatchDelta(assessment TriageAssessment) CapacityOverlay {
	delta := CapacityOverlay{EDBedsDelta: -1}
	if assessment.IsCritical() {
		delta.ICUBedsDelta = -1
	}
	if specialties := assessment.DispatchSpecialties(); len(specialties) > 0 {
		delta.SpecialistPatientsDelta = make(map[Specialty]int, len(specialties))
		for _, s := range specialties {
			delta.SpecialistPatientsDelta[s]++
		}
	}
	return delta
}
