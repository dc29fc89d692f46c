package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spardhafest/spardha/internal/config"
	"github.com/spardhafest/spardha/internal/gate"
	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
	"github.com/spardhafest/spardha/internal/service"
	"github.com/spardhafest/spardha/internal/session"
	"github.com/spardhafest/spardha/internal/site"
)

const (
	testSecret   = "test-secret-for-handler-tests"
	testPIN      = "0321"
	testPassword = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store    *config.Store
	tickets  *gate.Tickets
	sessions *session.Manager
	router   chi.Router
}

// newTestEnv creates a fresh test environment with an in-memory config store
// and a Chi router with all handlers mounted. Guarded routes use a minimal
// session loader in place of the server middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	g, err := gate.New(testPIN, 0)
	if err != nil {
		t.Fatalf("gate.New: %v", err)
	}
	tickets := gate.NewTickets([]byte(testSecret), time.Minute)
	sessions := session.NewManager(session.NewCodec([]byte(testSecret), time.Hour), session.CookieOptions{Path: "/"}, nil)
	authSvc := service.NewAuthService(store, nil)
	regSvc := registration.NewService(store, nil)
	renderer, err := site.New("Spardha 2025", "")
	if err != nil {
		t.Fatalf("site.New: %v", err)
	}
	logger := discardLogger()

	adminHandler := NewAdminHandler(g, tickets, authSvc, sessions, logger)
	regHandler := NewRegistrationHandler(regSvc, logger)
	dashHandler := NewDashboardHandler(regSvc, "Spardha 2025", logger)
	pages := NewPageHandler(PageDeps{
		Site:          renderer,
		Gate:          g,
		Tickets:       tickets,
		AuthSvc:       authSvc,
		Sessions:      sessions,
		Registrations: regSvc,
		Logger:        logger,
	})

	withSession := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.NewContext(r.Context(), sessions.Load(w, r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	r := chi.NewRouter()
	r.Get("/", pages.Landing)
	r.Post("/register", pages.Register)
	r.Get("/admin/gate", pages.Gate)
	r.Post("/admin/gate", pages.SubmitPIN)
	r.Post("/admin/login", pages.Login)
	r.Post("/admin/logout", pages.Logout)
	r.With(withSession).Get("/admin", pages.Dashboard)
	r.Get("/openapi.json", NewOpenAPIHandler("Spardha 2025").ServeSpec)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", regHandler.ListEvents)
		r.Post("/registrations", regHandler.Create)
		r.Post("/admin/pin", adminHandler.VerifyPIN)
		r.Post("/admin/session", adminHandler.Login)
		r.Delete("/admin/session", adminHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(withSession)
			r.Get("/admin/session", adminHandler.CurrentSession)
			r.Get("/admin/registrations", dashHandler.ListRegistrations)
			r.Get("/admin/stats", dashHandler.Stats)
			r.Get("/admin/registrations/export", dashHandler.Export)
		})
	})

	return &testEnv{
		store:    store,
		tickets:  tickets,
		sessions: sessions,
		router:   r,
	}
}

// seedAdmin creates an admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T, email string, active bool) *model.AdminCredential {
	t.Helper()
	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.AdminCredential{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Festival Admin",
		Role:         model.RoleSuperAdmin,
		IsActive:     active,
	}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// seedRegistration stores a valid registration.
func (e *testEnv) seedRegistration(t *testing.T, name string, events ...string) {
	t.Helper()
	reg := &model.Registration{
		FullName:         name,
		Email:            strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Phone:            "9876543210",
		College:          "City College",
		YearOfStudy:      2,
		RegistrationType: model.RegistrationIndividual,
		Events:           events,
	}
	if err := e.store.CreateRegistration(context.Background(), reg); err != nil {
		t.Fatalf("seedRegistration: %v", err)
	}
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// postForm submits url-encoded form values.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// login signs in through the JSON API and returns the session cookie.
func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rr := e.do(t, "POST", "/api/v1/admin/session", toJSON(t, map[string]string{
		"email":    email,
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)
	c := sessionCookie(rr)
	if c == nil {
		t.Fatal("login did not set a session cookie")
	}
	return c
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.SlotAdminSession {
			return c
		}
	}
	return nil
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	return resp.Error.Message
}
