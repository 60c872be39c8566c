package entities

import "strings"

// Specialty is one of the specialist services tracked per hospital.
type Specialty string

const (
	SpecialtyNone       Specialty = ""
	SpecialtyCardiology Specialty = "Cardiology"
	SpecialtyTrauma     Specialty = "Trauma"
	SpecialtyNeurology  Specialty = "Neurology"
)

// TrackedSpecialties is the fixed set of specialties with staffing columns in the registry.
var TrackedSpecialties = []Specialty{SpecialtyCardiology, SpecialtyTrauma, SpecialtyNeurology}

// Capability is a broad hospital capability a patient may require.
type Capability string

const (
	CapabilityNone      Capability = ""
	CapabilityTrauma    Capability = "trauma"
	CapabilityStroke    Capability = "stroke"
	CapabilityCardiac   Capability = "cardiac"
	CapabilityPediatric Capability = "pediatric"
)

// ParseSpecialty returns the tracked specialty for an exact (case-insensitive) name.
func ParseSpecialty(name string) (Specialty, bool) {
	for _, s := range TrackedSpecialties {
		if strings.EqualFold(strings.TrimSpace(name), string(s)) {
			return s, true
		}
	}
	return SpecialtyNone, false
}

// ClassifySpecialty maps a free-text specialty label from the triage
// assessment onto a tracked specialty. Canonical names win; otherwise the
// keyword rules apply. Unrecognised labels and "general" map to SpecialtyNone.
func ClassifySpecialty(label string) Specialty {
	s := normalizeLabel(label)
	if s == "" || s == "general" {
		return SpecialtyNone
	}
	if specialty, ok := ParseSpecialty(s); ok {
		return specialty
	}
	switch {
	case containsAny(s, "cardiac", "stemi", "heart"):
		return SpecialtyCardiology
	case strings.Contains(s, "trauma"):
		return SpecialtyTrauma
	case containsAny(s, "stroke", "neuro"):
		return SpecialtyNeurology
	}
	return SpecialtyNone
}

// ClassifyCapability maps the primary specialty label onto the capability a
// hospital must have to accept the patient. Rules are checked in order.
func ClassifyCapability(label string) Capability {
	s := normalizeLabel(label)
	if s == "" || s == "general" {
		return CapabilityNone
	}
	switch {
	case strings.Contains(s, "trauma"):
		return CapabilityTrauma
	case containsAny(s, "stroke", "neuro"):
		return CapabilityStroke
	case containsAny(s, "cardiac", "stemi", "heart"):
		return CapabilityCardiac
	case containsAny(s, "pediatric", "peds"):
		return CapabilityPediatric
	}
	return CapabilityNone
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
