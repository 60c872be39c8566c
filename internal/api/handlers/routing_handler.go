package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/hospitalrouter/backend/pkg/errors"
)

// HospitalSelector picks the best hospital for an assessment
type HospitalSelector interface {
	SelectBest(ctx context.Context, assessment entities.TriageAssessment, latitude, longitude float64) (*entities.SelectionResult, error)
}

// DispatchRecorder records a dispatch into the capacity overlay
type DispatchRecorder interface {
	Dispatch(ctx context.Context, hospitalID string, assessment entities.TriageAssessment) (*entities.DispatchRecord, error)
}

// RoutingHandler handles hospital selection and dispatch requests
type RoutingHandler struct {
	selector HospitalSelector
	recorder DispatchRecorder
}

// NewRoutingHandler creates a new routing handler
func NewRoutingHandler(selector HospitalSelector, recorder DispatchRecorder) *RoutingHandler {
	return &RoutingHandler{
		selector: selector,
		recorder: recorder,
	}
}

// SelectRequest is the body of POST /api/routing/select
type SelectRequest struct {
	entities.TriageAssessment
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Dispatch  bool     `json:"dispatch"`
}

// SelectResponse is the body returned by POST /api/routing/select
type SelectResponse struct {
	Hospital *entities.SelectionResult `json:"hospital"`
	Reason   string                    `json:"reason,omitempty"`
	Dispatch *entities.DispatchRecord  `json:"dispatch,omitempty"`
}

// DispatchRequest is the body of POST /api/routing/dispatch
type DispatchRequest struct {
	HospitalID string `json:"hospital_id"`
	entities.TriageAssessment
}

// DispatchResponse is the body returned by POST /api/routing/dispatch
type DispatchResponse struct {
	Dispatch *entities.DispatchRecord `json:"dispatch"`
}

const reasonNoEligibleHospital = "no eligible hospital"

// Select handles POST /api/routing/select
func (h *RoutingHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.selector.SelectBest(r.Context(), req.TriageAssessment, *req.Latitude, *req.Longitude)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if result == nil {
		respondWithJSON(w, http.StatusOK, SelectResponse{Reason: reasonNoEligibleHospital})
		return
	}

	resp := SelectResponse{Hospital: result}
	if req.Dispatch {
		record, err := h.recorder.Dispatch(r.Context(), result.HospitalID, req.TriageAssessment)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		resp.Dispatch = record
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// Dispatch handles POST /api/routing/dispatch
func (h *RoutingHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	record, err := h.recorder.Dispatch(r.Context(), req.HospitalID, req.TriageAssessment)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, DispatchResponse{Dispatch: record})
}

func validateCoordinates(latitude, longitude *float64) error {
	if latitude == nil || longitude == nil {
		return apperrors.NewValidationError("latitude and longitude are required")
	}
	if *latitude < -90 || *latitude > 90 {
		return apperrors.NewValidationError("latitude must be between -90 and 90")
	}
	if *longitude < -180 || *longitude > 180 {
		return apperrors.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}
