package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staffquote/internal/domain"
)

func (a *API) projectRoutes(r chi.Router) {
	r.Get("/", a.handleListProjects)
	r.Post("/", a.handleCreateProject)
	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", a.handleGetProject)
		r.Patch("/", a.handleUpdateProject)
		r.Delete("/", a.handleDeleteProject)
		r.Get("/timeline", a.handleProjectTimeline)
		r.Get("/monthly-hours", a.handleProjectMonthlyHours)
		r.Get("/pricing", a.handleProjectPricing)
		r.Get("/billing", a.handleBillingTable)
		r.Get("/export", a.handleExportBillingTable)
		r.Post("/offers", a.handleApplyOffer)
		r.Route("/allocations", a.allocationRoutes)
	})
}

func (a *API) handleListProjects(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	page, err := a.service.ListProjects(r.Context(), domain.ProjectFilter{
		Search: r.URL.Query().Get("search"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, page)
}

func (a *API) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var input domain.ProjectInput
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	created, err := a.service.CreateProject(r.Context(), input)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := a.service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, project)
}

func (a *API) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	updated, err := a.service.UpdateProject(r.Context(), chi.URLParam(r, "projectID"), patch)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleProjectTimeline(w http.ResponseWriter, r *http.Request) {
	weeks, err := a.service.ProjectTimeline(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, weeks)
}

func (a *API) handleProjectMonthlyHours(w http.ResponseWriter, r *http.Request) {
	months, err := a.service.ProjectMonthlyHours(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, months)
}

func (a *API) handleProjectPricing(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.ProjectPricing(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleBillingTable(w http.ResponseWriter, r *http.Request) {
	table, err := a.service.BillingTable(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, table)
}

func (a *API) handleExportBillingTable(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}

	payload, contentType, err := a.service.ExportBillingTable(r.Context(), projectID, format)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "billing-"+projectID+"."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

type applyOfferRequest struct {
	OfferID string `json:"offer_id"`
}

func (a *API) handleApplyOffer(w http.ResponseWriter, r *http.Request) {
	var input applyOfferRequest
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	result, err := a.service.ApplyOffer(r.Context(), chi.URLParam(r, "projectID"), input.OfferID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}
