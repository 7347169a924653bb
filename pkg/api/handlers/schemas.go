package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/dissect"
)

// SchemaHandler exposes the schema registry.
type SchemaHandler struct {
	registry *binstruct.Registry
}

// NewSchemaHandler returns a handler over the default registry.
func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{registry: binstruct.DefaultRegistry}
}

// List handles GET /api/v1/schemas.
func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(h.registry.Names()))
}

// Get handles GET /api/v1/schemas/{name}.
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.registry.Lookup(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "schema not found")
		return
	}
	writeJSON(w, http.StatusOK, okResponse(dissect.DescribeSchema(schema)))
}
