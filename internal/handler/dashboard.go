package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spardhafest/spardha/internal/export"
	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
)

// DashboardHandler serves registration data to signed-in admins.
type DashboardHandler struct {
	svc      *registration.Service
	festival string
	logger   *slog.Logger
	now      func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *registration.Service, festival string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, festival: festival, logger: logger, now: time.Now}
}

// ListRegistrations returns every registration, newest first.
// GET /api/v1/admin/registrations
func (h *DashboardHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list registrations", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list registrations")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(regs)))
	writeJSON(w, http.StatusOK, model.NewListResponse(regs))
}

// Stats returns registration totals.
// GET /api/v1/admin/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list registrations", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, registration.Summarize(regs))
}

// Export downloads all registrations as an xlsx workbook.
// GET /api/v1/admin/registrations/export and GET /admin/export.xlsx
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list registrations", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to export registrations")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, regs); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build workbook", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to export registrations")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(h.festival, h.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)

	h.logger.InfoContext(r.Context(), "registrations exported", "count", len(regs))
}
