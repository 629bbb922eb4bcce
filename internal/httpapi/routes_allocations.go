package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffquote/internal/domain"
)

func (a *API) allocationRoutes(r chi.Router) {
	r.Get("/", a.handleListAllocations)
	r.Post("/", a.handleAddProfessional)
	r.Patch("/", a.handleUpdateAllocations)
	r.Delete("/{allocationID}", a.handleRemoveAllocation)
}

func (a *API) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := a.service.ListProjectAllocations(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, allocations)
}

type addProfessionalRequest struct {
	ProfessionalID    string   `json:"professional_id"`
	SellingHourlyRate *float64 `json:"selling_hourly_rate,omitempty"`
}

func (a *API) handleAddProfessional(w http.ResponseWriter, r *http.Request) {
	var input addProfessionalRequest
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	created, err := a.service.AddProfessional(r.Context(), chi.URLParam(r, "projectID"), input.ProfessionalID, input.SellingHourlyRate)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

type updateAllocationsRequest struct {
	Updates []domain.AllocationUpdate `json:"updates"`
}

func (a *API) handleUpdateAllocations(w http.ResponseWriter, r *http.Request) {
	var input updateAllocationsRequest
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	allocations, err := a.service.UpdateAllocations(r.Context(), chi.URLParam(r, "projectID"), input.Updates)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, allocations)
}

func (a *API) handleRemoveAllocation(w http.ResponseWriter, r *http.Request) {
	err := a.service.RemoveAllocation(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "allocationID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
