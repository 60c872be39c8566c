package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// DefaultAcuity is used when the assessment carries no usable acuity.
	DefaultAcuity = 3
	// CriticalAcuityThreshold is the highest acuity still treated as critical.
	CriticalAcuityThreshold = 2

	minAcuity = 1
	maxAcuity = 5
)

// Acuity is the triage acuity level, 1 (most severe) to 5. The zero value
// means "absent" and resolves to DefaultAcuity.
type Acuity int

// UnmarshalJSON accepts a number or a numeric string. Anything else decodes
// to the absent value rather than failing the whole assessment.
func (a *Acuity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = 0
		return nil
	}

	raw := string(trimmed)
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		raw = s
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value != float64(int(value)) {
		*a = 0
		return nil
	}
	*a = Acuity(int(value))
	return nil
}

// Level returns the effective acuity level.
func (a Acuity) Level() int {
	if a < minAcuity || a > maxAcuity {
		return DefaultAcuity
	}
	return int(a)
}

// TriageAssessment is the structured output of the upstream triage step.
type TriageAssessment struct {
	AcuityLevel         Acuity   `json:"acuity_level"`
	RequiredSpecialty   string   `json:"required_specialty"`
	RequiredSpecialties []string `json:"required_specialties,omitempty"`
}

// Acuity returns the effective acuity level.
func (t TriageAssessment) Acuity() int {
	return t.AcuityLevel.Level()
}

// IsCritical reports whether the patient is critical (acuity <= 2).
func (t TriageAssessment) IsCritical() bool {
	return t.Acuity() <= CriticalAcuityThreshold
}

// PrimarySpecialty returns the tracked specialty named by RequiredSpecialty.
func (t TriageAssessment) PrimarySpecialty() Specialty {
	return ClassifySpecialty(t.RequiredSpecialty)
}

// RequiredCapability returns the capability implied by RequiredSpecialty.
func (t TriageAssessment) RequiredCapability() Capability {
	return ClassifyCapability(t.RequiredSpecialty)
}

// DispatchSpecialties lists every tracked specialty a dispatch adds load to:
// the classified RequiredSpecialties when given, else the primary specialty.
// Duplicates are kept, so a specialty listed twice counts twice.
func (t TriageAssessment) DispatchSpecialties() []Specialty {
	if t.RequiredSpecialties != nil {
		out := make([]Specialty, 0, len(t.RequiredSpecialties))
		for _, label := range t.RequiredSpecialties {
			if s := ClassifySpecialty(label); s != SpecialtyNone {
				out = append(out, s)
			}
		}
		return out
	}
	if s := t.PrimarySpecialty(); s != SpecialtyNone {
		return []Specialty{s}
	}
	return nil
}
