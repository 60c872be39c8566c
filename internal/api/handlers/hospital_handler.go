package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

// HospitalCatalog exposes the registry and its capacity overlay
type HospitalCatalog interface {
	ListHospitals(ctx context.Context) ([]*entities.Hospital, error)
	Capacity(ctx context.Context, hospitalID string) (*entities.HospitalCapacity, error)
}

// HospitalHandler handles hospital registry requests
type HospitalHandler struct {
	catalog HospitalCatalog
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(catalog HospitalCatalog) *HospitalHandler {
	return &HospitalHandler{catalog: catalog}
}

// ListHospitalsResponse is the body returned by GET /api/hospitals
type ListHospitalsResponse struct {
	Hospitals []*entities.Hospital `json:"hospitals"`
	Count     int                  `json:"count"`
}

// ListHospitals handles GET /api/hospitals
func (h *HospitalHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.catalog.ListHospitals(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if hospitals == nil {
		hospitals = []*entities.Hospital{}
	}

	respondWithJSON(w, http.StatusOK, ListHospitalsResponse{
		Hospitals: hospitals,
		Count:     len(hospitals),
	})
}

// GetCapacity handles GET /api/hospitals/{id}/capacity
func (h *HospitalHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.PathValue("id")
	if hospitalID == "" {
		respondWithError(w, http.StatusBadRequest, "hospital ID is required")
		return
	}

	capacity, err := h.catalog.Capacity(r.Context(), hospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, capacity)
}
