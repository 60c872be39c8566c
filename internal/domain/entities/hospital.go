package entities

import (
	"regexp"
	"strings"
)

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SpecialistStaffing is the baseline staffing for one specialty.
type SpecialistStaffing struct {
	Doctors  int `json:"doctors"`
	Patients int `json:"patients"`
}

// Hospital is one row of the hospital registry. The name is the hospital's
// identifier everywhere; records are never mutated after loading.
type Hospital struct {
	Name                   string                           `json:"hospital_name"`
	Location               Location                         `json:"location"`
	EDDiversion            bool                             `json:"ed_diversion"`
	AvailableEDBeds        int                              `json:"available_ed_beds"`
	AvailableICUBeds       int                              `json:"available_icu_beds"`
	ERWaitMinutes          float64                          `json:"er_wait_min"`
	OnCallEDPhysicians     int                              `json:"on_call_ed_physicians"`
	TraumaLevel            string                           `json:"trauma_level"`
	StrokeCenterLevel      string                           `json:"stroke_center_level"`
	CardiacCathLab         string                           `json:"cardiac_cath_lab"`
	PediatricSpecialty     string                           `json:"pediatric_specialty"`
	SimulatedTravelMinutes float64                          `json:"ambulance_travel_time_min"`
	Specialists            map[Specialty]SpecialistStaffing `json:"specialists"`
}

// ID returns the registry key of the hospital.
func (h *Hospital) ID() string {
	return h.Name
}

// Staffing returns the baseline staffing for a specialty (zero value when untracked).
func (h *Hospital) Staffing(s Specialty) SpecialistStaffing {
	if h.Specialists == nil {
		return SpecialistStaffing{}
	}
	return h.Specialists[s]
}

// EffectiveEDBeds applies the overlay to the ED bed baseline, floored at zero.
func (h *Hospital) EffectiveEDBeds(o CapacityOverlay) int {
	return max(0, h.AvailableEDBeds+o.EDBedsDelta)
}

// EffectiveICUBeds applies the overlay to the ICU bed baseline, floored at zero.
func (h *Hospital) EffectiveICUBeds(o CapacityOverlay) int {
	return max(0, h.AvailableICUBeds+o.ICUBedsDelta)
}

// SpecialistLoad returns patients per specialist for s after the overlay is
// applied. ok is false when the hospital has no specialists of that type.
func (h *Hospital) SpecialistLoad(s Specialty, o CapacityOverlay) (load float64, ok bool) {
	staffing := h.Staffing(s)
	if staffing.Doctors <= 0 {
		return 0, false
	}
	patients := max(0, staffing.Patients+o.SpecialistDelta(s))
	return float64(patients) / float64(staffing.Doctors), true
}

var traumaLevelPattern = regexp.MustCompile(`^(?:LEVEL\s+)?(?:IV|I{1,3})\b`)

// HasCapability reports whether the hospital offers the given capability.
func (h *Hospital) HasCapability(c Capability) bool {
	switch c {
	case CapabilityNone:
		return true
	case CapabilityTrauma:
		level := strings.ToUpper(strings.TrimSpace(h.TraumaLevel))
		if level == "" || level == "N/A" {
			return false
		}
		return traumaLevelPattern.MatchString(level)
	case CapabilityStroke:
		level := strings.ToLower(h.StrokeCenterLevel)
		if strings.Contains(level, "none") && !strings.Contains(level, "capable") {
			return false
		}
		return containsAny(level, "primary", "comprehensive", "capable")
	case CapabilityCardiac:
		return strings.EqualFold(strings.TrimSpace(h.CardiacCathLab), "yes")
	case CapabilityPediatric:
		return containsAny(strings.ToLower(h.PediatricSpecialty), "yes", "limited", "nicu")
	}
	return true
}
