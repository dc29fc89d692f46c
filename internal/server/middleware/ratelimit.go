package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware that limits requests per client IP to
// requestsPerMinute over a sliding window. The counter is shared by every
// route the returned middleware wraps, so the HTML form and the JSON
// endpoint for the same action draw from one budget. A non-positive limit
// disables throttling.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(tooManyAttempts),
	)
}

func tooManyAttempts(w http.ResponseWriter, r *http.Request) {
	const msg = "Too many attempts. Please wait a minute and try again."
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeAuthError(w, http.StatusTooManyRequests, msg)
		return
	}
	http.Error(w, msg, http.StatusTooManyRequests)
}
