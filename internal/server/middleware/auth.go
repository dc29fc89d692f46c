package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/spardhafest/spardha/internal/session"
)

// RequireSession returns an HTTP middleware for the JSON admin API. It builds
// the request's Session Store, and answers 401 when no admin is signed in.
// On success the store is attached to the request context.
func RequireSession(m *session.Manager) func(http.Handler) http.Handler {
	return guard(m, func(w http.ResponseWriter, r *http.Request) {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
	})
}

// RequirePage is RequireSession for HTML pages: unauthenticated visitors are
// redirected to the landing page.
func RequirePage(m *session.Manager) func(http.Handler) http.Handler {
	return guard(m, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

// guard decides only after the store finished loading, and writes nothing
// of the protected handler when it denies.
func guard(m *session.Manager, deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := m.Load(w, r)
			if !store.Loaded() || !store.IsAuthenticated() {
				deny(w, r)
				return
			}

			w.Header().Set("Cache-Control", "no-store")
			setLogAdmin(r.Context(), store.Current().ID)
			ctx := session.NewContext(r.Context(), store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeAuthError writes the API error envelope.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	var body errorBody
	body.Error.Code = status
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
