package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/session"
)

const testSecret = "middleware-test-secret"

func testManager() *session.Manager {
	return session.NewManager(session.NewCodec([]byte(testSecret), time.Hour), session.CookieOptions{Path: "/"}, nil)
}

func sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	cred := &model.AdminCredential{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
	blob, err := session.NewCodec([]byte(testSecret), time.Hour).Encode(model.NewAdminSession(cred, time.Now()))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return &http.Cookie{Name: session.SlotAdminSession, Value: blob}
}

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	// UUID v7 format: 36 chars with dashes
	if respID := rr.Header().Get("X-Request-ID"); len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q", respID)
	}
}

func TestRequestIDClientValue(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		keep     bool
	}{
		{"printable", "my-custom-trace-id-123", true},
		{"contains space", "two words", false},
		{"contains newline", "id\ninjected", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Request-ID", tt.clientID)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got := ctxID == tt.clientID; got != tt.keep {
				t.Errorf("kept client ID = %v, want %v (got %q)", got, tt.keep, ctxID)
			}
			if rr.Header().Get("X-Request-ID") != ctxID {
				t.Error("response header and context disagree")
			}
		})
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty request ID, got %q", id)
	}
}

// ---------------------------------------------------------------------------
// Session guard tests
// ---------------------------------------------------------------------------

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	called := false
	handler := RequireSession(testManager())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/admin/stats", nil))

	if called {
		t.Error("protected handler must not run")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	var resp model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if resp.Error.Code != 401 {
		t.Errorf("error code = %d", resp.Error.Code)
	}
}

func TestWriteAuthErrorEscapesMessage(t *testing.T) {
	const msg = `Bad "quote" and \ backslash`
	rr := httptest.NewRecorder()
	writeAuthError(rr, http.StatusTooManyRequests, msg)

	var resp model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not JSON: %v (%s)", err, rr.Body.String())
	}
	if resp.Error.Code != http.StatusTooManyRequests || resp.Error.Message != msg {
		t.Errorf("unexpected error %+v", resp.Error)
	}
}

func TestRequireSessionAttachesStore(t *testing.T) {
	handler := RequireSession(testManager())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.FromContext(r.Context())
		if store == nil || store.Current().Email != "admin@example.com" {
			t.Errorf("expected session in context, got %+v", store)
		}
	}))

	req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
	req.AddCookie(sessionCookie(t))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("guarded responses must not be cached")
	}
}

func TestRequirePageRedirects(t *testing.T) {
	handler := RequirePage(testManager())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secret dashboard"))
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: session.SlotAdminSession, Value: "tampered"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Errorf("got %d to %q, want 303 to /", rr.Code, rr.Header().Get("Location"))
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Error("protected content leaked")
	}
}

// ---------------------------------------------------------------------------
// RateLimit tests
// ---------------------------------------------------------------------------

func TestRateLimitSharedAcrossRoutes(t *testing.T) {
	limit := RateLimit(2)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	page := limit(ok)
	api := limit(ok)

	send := func(h http.Handler, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(page, "/admin/gate"); rr.Code != http.StatusOK {
		t.Fatalf("first request: %d", rr.Code)
	}
	if rr := send(api, "/api/v1/admin/pin"); rr.Code != http.StatusOK {
		t.Fatalf("second request: %d", rr.Code)
	}

	rr := send(api, "/api/v1/admin/pin")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d, want 429", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("API limit response Content-Type = %q", ct)
	}

	rr = send(page, "/admin/gate")
	if rr.Code != http.StatusTooManyRequests || strings.HasPrefix(rr.Body.String(), "{") {
		t.Errorf("page limit response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/admin/gate", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d throttled", i)
		}
	}
}

// ---------------------------------------------------------------------------
// Logger tests
// ---------------------------------------------------------------------------

func TestLoggerRecordsAdmin(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(Logger(logger)(RequireSession(testManager())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}),
	)))

	req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
	req.AddCookie(sessionCookie(t))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["admin_id"] != "admin-1" {
		t.Errorf("admin_id = %v", entry["admin_id"])
	}
	if entry["status"] != float64(http.StatusAccepted) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["request_id"] == "" {
		t.Error("expected request_id")
	}
}

func TestLoggerLevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusUnauthorized, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		if entry["level"] != tt.level {
			t.Errorf("status %d logged at %v, want %s", tt.status, entry["level"], tt.level)
		}
		if _, ok := entry["admin_id"]; ok {
			t.Error("anonymous requests carry no admin_id")
		}
	}
}
