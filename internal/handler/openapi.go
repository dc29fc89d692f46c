package handler

import (
	"net/http"

	"github.com/spardhafest/spardha/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 description of the JSON API.
type OpenAPIHandler struct {
	festival string
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(festival string) *OpenAPIHandler {
	return &OpenAPIHandler{festival: festival}
}

// ServeSpec returns the document with the server URL taken from the request.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, openapi.Generate(h.festival, scheme+"://"+r.Host+"/api/v1"))
}
