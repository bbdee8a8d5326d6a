// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/geohistory/internal/platform/request"
	"github.com/taibuivan/geohistory/internal/platform/respond"
	"github.com/taibuivan/geohistory/internal/platform/validate"
)

// Handler serves read-only catalogue lookups for the event detail page.
type Handler struct {
	repository Repository
}

// NewHandler constructs a new [Handler].
func NewHandler(repository Repository) *Handler {
	return &Handler{repository: repository}
}

// Routes returns a [chi.Router] configured with the catalogue routes.
//
// # Endpoints
//   - GET /{id} : Full record of one event.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{id}", handler.getEvent)
	return router
}

func (handler *Handler) getEvent(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	validator.Required("id", id).MaxLen("id", id, 128)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.repository.GetEvent(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}
