package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/spardhafest/spardha/internal/gate"
	"github.com/spardhafest/spardha/internal/service"
	"github.com/spardhafest/spardha/internal/session"
)

// AdminHandler serves the JSON admin entry points: the PIN gate, login,
// logout and the current session.
type AdminHandler struct {
	gate     *gate.Gate
	tickets  *gate.Tickets
	authSvc  *service.AuthService
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(g *gate.Gate, tickets *gate.Tickets, authSvc *service.AuthService, sessions *session.Manager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		gate:     g,
		tickets:  tickets,
		authSvc:  authSvc,
		sessions: sessions,
		logger:   logger,
	}
}

type pinRequest struct {
	PIN string `json:"pin"`
}

type pinResponse struct {
	State  string `json:"state"`
	Ticket string `json:"ticket"`
}

// VerifyPIN checks the gate PIN and returns a login ticket.
// POST /api/v1/admin/pin
func (h *AdminHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	flow := h.gate.NewFlow()
	flow.SetInput(req.PIN)
	if err := flow.Submit(r.Context()); err != nil {
		switch {
		case errors.Is(err, gate.ErrPINRequired):
			writeError(w, http.StatusBadRequest, "Please enter the PIN")
		case errors.Is(err, gate.ErrPINMismatch):
			writeError(w, http.StatusUnauthorized, "Invalid PIN")
		}
		// A cancelled request has no one left to answer.
		return
	}

	ticket, err := h.tickets.Issue()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue gate ticket", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue ticket")
		return
	}
	writeJSON(w, http.StatusOK, pinResponse{State: flow.State().String(), Ticket: ticket})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Ticket   string `json:"ticket,omitempty"`
}

// Login authenticates an admin and stores the session cookie. A gate ticket
// is optional for API clients but must be valid when sent.
// POST /api/v1/admin/session
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Ticket != "" {
		if err := h.tickets.Check(req.Ticket); err != nil {
			writeError(w, http.StatusUnauthorized, "Please verify the PIN again")
			return
		}
	}

	result := h.authSvc.Login(r.Context(), req.Email, req.Password, h.sessions.Load(w, r))
	if !result.OK {
		writeError(w, loginStatus(result.Err), result.Message())
		return
	}
	writeJSON(w, http.StatusOK, result.Session)
}

// CurrentSession returns the signed-in admin.
// GET /api/v1/admin/session
func (h *AdminHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	store := session.FromContext(r.Context())
	if store == nil || !store.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, store.Current())
}

// Logout clears the session. It succeeds whether or not one existed.
// DELETE /api/v1/admin/session
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Load(w, r).Clear(); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session cleared",
	})
}

func loginStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrFieldsRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
