package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 64 << 10

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// writeValidationError reports every rejected field.
func writeValidationError(w http.ResponseWriter, verr *registration.ValidationError) {
	writeError(w, http.StatusBadRequest, "Registration is incomplete",
		map[string]interface{}{"fields": verr.Fields})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	return dec.Decode(v)
}

// formInt extracts an integer form value, returning 0 when it is missing or
// cannot be parsed.
func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(key)))
	if err != nil {
		return 0
	}
	return n
}

// asValidation unwraps a *registration.ValidationError from err.
func asValidation(err error) (*registration.ValidationError, bool) {
	var verr *registration.ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}

// capitalize upper-cases the first byte of an ASCII message.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
