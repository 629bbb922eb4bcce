package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffquote/internal/domain"
)

func (a *API) professionalRoutes(r chi.Router) {
	r.Get("/", a.handleListProfessionals)
	r.Post("/", a.handleCreateProfessional)
	r.Post("/import", a.handleImportProfessionals)
	r.Route("/{professionalID}", func(r chi.Router) {
		r.Get("/", a.handleGetProfessional)
		r.Put("/", a.handleUpdateProfessional)
		r.Patch("/", a.handleUpdateProfessional)
		r.Delete("/", a.handleDeleteProfessional)
	})
}

func (a *API) handleListProfessionals(w http.ResponseWriter, r *http.Request) {
	professionals, err := a.service.ListProfessionals(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, professionals)
}

func (a *API) handleCreateProfessional(w http.ResponseWriter, r *http.Request) {
	var input domain.Professional
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	created, err := a.service.CreateProfessional(r.Context(), input)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetProfessional(w http.ResponseWriter, r *http.Request) {
	professional, err := a.service.GetProfessional(r.Context(), chi.URLParam(r, "professionalID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, professional)
}

func (a *API) handleUpdateProfessional(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfessionalPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	updated, err := a.service.UpdateProfessional(r.Context(), chi.URLParam(r, "professionalID"), patch)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteProfessional(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProfessional(r.Context(), chi.URLParam(r, "professionalID")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportProfessionals takes the CSV document as the raw request body.
func (a *API) handleImportProfessionals(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		a.writeDecodeError(w, err)
		return
	}

	result, err := a.service.ImportProfessionals(r.Context(), raw)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}
