package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/spardhafest/spardha/internal/gate"
	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
	"github.com/spardhafest/spardha/internal/service"
	"github.com/spardhafest/spardha/internal/session"
	"github.com/spardhafest/spardha/internal/site"
)

// PageHandler serves the HTML site: the landing page with its registration
// form, the admin gate and login forms, and the dashboard.
type PageHandler struct {
	site          *site.Renderer
	gate          *gate.Gate
	tickets       *gate.Tickets
	authSvc       *service.AuthService
	sessions      *session.Manager
	registrations *registration.Service
	logger        *slog.Logger
}

// PageDeps groups the collaborators of a PageHandler.
type PageDeps struct {
	Site          *site.Renderer
	Gate          *gate.Gate
	Tickets       *gate.Tickets
	AuthSvc       *service.AuthService
	Sessions      *session.Manager
	Registrations *registration.Service
	Logger        *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(deps PageDeps) *PageHandler {
	return &PageHandler{
		site:          deps.Site,
		gate:          deps.Gate,
		tickets:       deps.Tickets,
		authSvc:       deps.AuthSvc,
		sessions:      deps.Sessions,
		registrations: deps.Registrations,
		logger:        deps.Logger,
	}
}

type landingData struct {
	Content    template.HTML
	Events     []model.Event
	Registered bool
	Errors     []registration.FieldError
}

type gateData struct {
	Error string
	Input string
}

type loginData struct {
	Ticket string
	Email  string
	Error  string
}

type dashboardData struct {
	Admin         *model.AdminSession
	Stats         model.RegistrationStats
	Ranked        []registration.EventCount
	Registrations []model.Registration
}

// Landing renders the public page.
// GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, site.PageLanding, landingData{
		Content:    h.site.Content(),
		Events:     model.Events(),
		Registered: r.URL.Query().Get("registered") == "1",
	})
}

// Register accepts the landing page form.
// POST /register
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	reg := model.Registration{
		FullName:         r.PostFormValue("full_name"),
		Email:            r.PostFormValue("email"),
		Phone:            r.PostFormValue("phone"),
		College:          r.PostFormValue("college"),
		Department:       r.PostFormValue("department"),
		YearOfStudy:      formInt(r, "year_of_study"),
		RegistrationType: model.RegistrationType(r.PostFormValue("registration_type")),
		TeamName:         r.PostFormValue("team_name"),
		Events:           r.PostForm["event_registered"],
	}

	if err := h.registrations.Register(r.Context(), &reg); err != nil {
		data := landingData{Content: h.site.Content(), Events: model.Events()}
		if verr, ok := asValidation(err); ok {
			data.Errors = verr.Fields
			h.render(w, r, http.StatusBadRequest, site.PageLanding, data)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to store registration", "error", err)
		data.Errors = []registration.FieldError{{Field: "registration", Message: "Registration failed. Please try again."}}
		h.render(w, r, http.StatusInternalServerError, site.PageLanding, data)
		return
	}

	http.Redirect(w, r, "/?registered=1#register", http.StatusSeeOther)
}

// Gate renders the PIN form. Signed-in admins go straight to the dashboard.
// GET /admin/gate
func (h *PageHandler) Gate(w http.ResponseWriter, r *http.Request) {
	if h.sessions.Load(w, r).IsAuthenticated() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, site.PageGate, gateData{})
}

// SubmitPIN verifies the PIN and, on a match, reveals the login form.
// POST /admin/gate
func (h *PageHandler) SubmitPIN(w http.ResponseWriter, r *http.Request) {
	flow := h.gate.NewFlow()
	flow.SetInput(r.PostFormValue("pin"))

	if err := flow.Submit(r.Context()); err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := http.StatusUnauthorized
		if errors.Is(err, gate.ErrPINRequired) {
			status = http.StatusBadRequest
		}
		h.render(w, r, status, site.PageGate, gateData{
			Error: capitalize(err.Error()),
			Input: flow.Input(),
		})
		return
	}

	ticket, err := h.tickets.Issue()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue gate ticket", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, site.PageLogin, loginData{Ticket: ticket})
}

// Login authenticates the credential form. Without a valid gate ticket the
// visitor is sent back to the PIN form.
// POST /admin/login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	ticket := r.PostFormValue("ticket")
	if err := h.tickets.Check(ticket); err != nil {
		http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
		return
	}

	email := r.PostFormValue("email")
	result := h.authSvc.Login(r.Context(), email, r.PostFormValue("password"), h.sessions.Load(w, r))
	if !result.OK {
		h.render(w, r, loginStatus(result.Err), site.PageLogin, loginData{
			Ticket: ticket,
			Email:  email,
			Error:  result.Message(),
		})
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout clears the session and returns to the landing page.
// POST /admin/logout
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Load(w, r).Clear(); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dashboard renders registrations and statistics for the signed-in admin.
// GET /admin
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	store := session.FromContext(r.Context())
	if store == nil || !store.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	regs, err := h.registrations.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list registrations", "error", err)
		http.Error(w, "Failed to load registrations", http.StatusInternalServerError)
		return
	}

	stats := registration.Summarize(regs)
	h.render(w, r, http.StatusOK, site.PageDashboard, dashboardData{
		Admin:         store.Current(),
		Stats:         stats,
		Ranked:        registration.Ranked(stats),
		Registrations: regs,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data interface{}) {
	if err := h.site.Render(w, r, status, page, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
