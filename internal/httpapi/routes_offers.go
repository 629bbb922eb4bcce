package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffquote/internal/domain"
)

func (a *API) offerRoutes(r chi.Router) {
	r.Get("/", a.handleListOffers)
	r.Post("/", a.handleCreateOffer)
	r.Route("/{offerID}", func(r chi.Router) {
		r.Get("/", a.handleGetOffer)
		r.Put("/", a.handleUpdateOffer)
		r.Delete("/", a.handleDeleteOffer)
		r.Get("/items", a.handleListOfferItems)
		r.Post("/items", a.handleAddOfferItem)
		r.Put("/items/{professionalID}", a.handleUpdateOfferItem)
		r.Delete("/items/{professionalID}", a.handleRemoveOfferItem)
	})
}

func (a *API) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := a.service.ListOffers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, offers)
}

func (a *API) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var input domain.Offer
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	created, err := a.service.CreateOffer(r.Context(), input)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := a.service.GetOffer(r.Context(), chi.URLParam(r, "offerID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, offer)
}

func (a *API) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	var input domain.Offer
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	updated, err := a.service.UpdateOffer(r.Context(), chi.URLParam(r, "offerID"), input)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteOffer(r.Context(), chi.URLParam(r, "offerID")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type offerItemPercentage struct {
	AllocationPercentage float64 `json:"allocation_percentage"`
}

func (a *API) handleListOfferItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.ListOfferItems(r.Context(), chi.URLParam(r, "offerID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, items)
}

func (a *API) handleAddOfferItem(w http.ResponseWriter, r *http.Request) {
	var input domain.OfferItem
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	item, err := a.service.AddOfferItem(r.Context(), chi.URLParam(r, "offerID"), input)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleUpdateOfferItem(w http.ResponseWriter, r *http.Request) {
	var input offerItemPercentage
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeDecodeError(w, err)
		return
	}

	item, err := a.service.UpdateOfferItem(r.Context(), chi.URLParam(r, "offerID"), chi.URLParam(r, "professionalID"), input.AllocationPercentage)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, item)
}

func (a *API) handleRemoveOfferItem(w http.ResponseWriter, r *http.Request) {
	if err := a.service.RemoveOfferItem(r.Context(), chi.URLParam(r, "offerID"), chi.URLParam(r, "professionalID")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
