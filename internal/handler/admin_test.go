package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/spardhafest/spardha/internal/model"
)

func TestVerifyPIN(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		pin     string
		status  int
		message string
	}{
		{"empty", "", http.StatusBadRequest, "Please enter the PIN"},
		{"wrong", "1234", http.StatusUnauthorized, "Invalid PIN"},
		{"correct prefix with extra digits", "03219", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/admin/pin", toJSON(t, map[string]string{"pin": tt.pin}))
			assertStatus(t, rr, tt.status)
			if tt.status != http.StatusOK {
				if got := errorMessage(t, rr); got != tt.message {
					t.Errorf("message = %q, want %q", got, tt.message)
				}
			}
		})
	}
}

func TestVerifyPIN_IssuesUsableTicket(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/admin/pin", toJSON(t, map[string]string{"pin": testPIN}))
	assertStatus(t, rr, http.StatusOK)

	var resp pinResponse
	decodeJSON(t, rr, &resp)
	if resp.State != "verified" {
		t.Errorf("state = %q, want verified", resp.State)
	}
	if err := env.tickets.Check(resp.Ticket); err != nil {
		t.Errorf("ticket rejected: %v", err)
	}
}

func TestVerifyPIN_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/v1/admin/pin", toJSON(t, "not an object"))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestLogin_ValidCredentials(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "admin@example.com", true)

	rr := env.do(t, "POST", "/api/v1/admin/session", toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)

	var sess model.AdminSession
	decodeJSON(t, rr, &sess)
	if sess.ID != admin.ID || sess.Email != admin.Email || sess.Role != model.RoleSuperAdmin {
		t.Errorf("unexpected session %+v", sess)
	}
	if sess.LastLogin == nil {
		t.Error("expected last_login on the session")
	}

	c := sessionCookie(rr)
	if c == nil || !c.HttpOnly || c.MaxAge <= 0 {
		t.Fatalf("expected persistent HttpOnly session cookie, got %+v", c)
	}

	stored, err := env.store.GetAdminByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if stored.LastLogin == nil {
		t.Error("expected last_login to be recorded")
	}
}

func TestLogin_ChecksTicketWhenSent(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", true)

	rr := env.do(t, "POST", "/api/v1/admin/session", toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": testPassword,
		"ticket":   "forged.ticket.value",
	}))
	assertStatus(t, rr, http.StatusUnauthorized)
	if got := errorMessage(t, rr); got != "Please verify the PIN again" {
		t.Errorf("got message %q", got)
	}
	if sessionCookie(rr) != nil {
		t.Error("no session may be issued for a bad ticket")
	}

	ticket, err := env.tickets.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rr = env.do(t, "POST", "/api/v1/admin/session", toJSON(t, map[string]string{
		"email":    "admin@example.com",
		"password": testPassword,
		"ticket":   ticket,
	}))
	assertStatus(t, rr, http.StatusOK)
	if sessionCookie(rr) == nil {
		t.Error("expected a session cookie with a valid ticket")
	}
}

func TestLogin_FailuresShareOneMessage(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", true)
	env.seedAdmin(t, "retired@example.com", false)

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "admin@example.com", "wrong-password"},
		{"unknown email", "nobody@example.com", testPassword},
		{"inactive account", "retired@example.com", testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/admin/session", toJSON(t, map[string]string{
				"email":    tt.email,
				"password": tt.pass,
			}))
			assertStatus(t, rr, http.StatusUnauthorized)
			if got := errorMessage(t, rr); got != "Invalid credentials" {
				t.Errorf("message = %q", got)
			}
			if sessionCookie(rr) != nil {
				t.Error("failed login must not set a session cookie")
			}
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]string{
		{"email": "admin@example.com"},
		{"password": testPassword},
		{},
	} {
		rr := env.do(t, "POST", "/api/v1/admin/session", toJSON(t, body))
		assertStatus(t, rr, http.StatusBadRequest)
		if got := errorMessage(t, rr); got != "Please fill in all fields" {
			t.Errorf("message = %q", got)
		}
	}
}

func TestCurrentSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", true)

	rr := env.do(t, "GET", "/api/v1/admin/session", nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	cookie := env.login(t, "admin@example.com")
	rr = env.do(t, "GET", "/api/v1/admin/session", nil, cookie)
	assertStatus(t, rr, http.StatusOK)

	var sess model.AdminSession
	decodeJSON(t, rr, &sess)
	if sess.FullName != "Festival Admin" {
		t.Errorf("full_name = %q", sess.FullName)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "admin@example.com", true)
	cookie := env.login(t, "admin@example.com")

	rr := env.do(t, "DELETE", "/api/v1/admin/session", nil, cookie)
	assertStatus(t, rr, http.StatusOK)

	cleared := sessionCookie(rr)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected expiring session cookie, got %+v", cleared)
	}

	// A client that honors the deletion no longer has a session.
	rr = env.do(t, "GET", "/api/v1/admin/session", nil)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestLogout_WithoutSession(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "DELETE", "/api/v1/admin/session", nil)
	assertStatus(t, rr, http.StatusOK)
}
