package handler

import (
	"log/slog"
	"net/http"

	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
)

// RegistrationHandler serves the public registration API.
type RegistrationHandler struct {
	svc    *registration.Service
	logger *slog.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(svc *registration.Service, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, logger: logger}
}

// ListEvents returns the event catalog.
// GET /api/v1/events
func (h *RegistrationHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.NewListResponse(model.Events()))
}

// Create records a registration.
// POST /api/v1/registrations
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := readJSON(w, r, &reg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.svc.Register(r.Context(), &reg); err != nil {
		if verr, ok := asValidation(err); ok {
			writeValidationError(w, verr)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to store registration", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}
