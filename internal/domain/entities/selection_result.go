package entities

import "time"

// TravelTimeSource records where a selection's ETA came from.
type TravelTimeSource string

const (
	TravelTimeLive      TravelTimeSource = "live"
	TravelTimeSimulated TravelTimeSource = "simulated"
)

// SelectionResult is the normalized projection of the winning hospital.
// Bed counts are the registry baseline; routing_score, eta_minutes and
// specialist_load are rounded.
type SelectionResult struct {
	HospitalID        string           `json:"hospital_id"`
	HospitalName      string           `json:"hospital_name"`
	RoutingScore      float64          `json:"routing_score"`
	ETAMinutes        float64          `json:"eta_minutes"`
	Latitude          float64          `json:"latitude"`
	Longitude         float64          `json:"longitude"`
	AvailableEDBeds   int              `json:"available_ed_beds"`
	AvailableICUBeds  int              `json:"available_icu_beds"`
	ERWaitMinutes     float64          `json:"er_wait_min"`
	TraumaLevel       string           `json:"trauma_level"`
	StrokeCenterLevel string           `json:"stroke_center_level"`
	CardiacCathLab    string           `json:"cardiac_cath_lab"`
	SpecialistReady   bool             `json:"specialist_ready"`
	SpecialistLoad    *float64         `json:"specialist_load"`
	TravelTimeSource  TravelTimeSource `json:"travel_time_source"`
}

// DispatchRecord acknowledges one recorded dispatch.
type DispatchRecord struct {
	DispatchID  string      `json:"dispatch_id"`
	HospitalID  string      `json:"hospital_id"`
	AcuityLevel int         `json:"acuity_level"`
	Critical    bool        `json:"critical"`
	Specialties []Specialty `json:"specialties"`
	RecordedAt  time.Time   `json:"recorded_at"`
}

// HospitalCapacity is a hospital's baseline next to its overlay-adjusted capacity.
type HospitalCapacity struct {
	HospitalID       string                 `json:"hospital_id"`
	BaselineEDBeds   int                    `json:"baseline_ed_beds"`
	BaselineICUBeds  int                    `json:"baseline_icu_beds"`
	EffectiveEDBeds  int                    `json:"effective_ed_beds"`
	EffectiveICUBeds int                    `json:"effective_icu_beds"`
	Overlay          CapacityOverlay        `json:"overlay"`
	SpecialistLoads  map[Specialty]*float64 `json:"specialist_loads"`
}
