package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/validation"
	"github.com/go-chi/chi/v5/middleware"
)

// Error codes of the JSON error envelope
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorBody is the payload of an error response
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// RespondWithJSON writes payload as JSON with the given status
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// RespondWithError writes the error envelope. The request id is taken from
// the request context when present.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	body := ErrorBody{Code: code, Message: message, Details: details}
	if r != nil {
		body.RequestID = middleware.GetReqID(r.Context())
	}
	RespondWithJSON(w, status, ErrorResponse{Error: body})
}

// respondWithDecodeError maps a request decoding failure to the envelope
func respondWithDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		RespondWithError(w, r, http.StatusBadRequest, CodeBadRequest, "Invalid request", verr.Fields)
	case errors.As(err, &tooLarge):
		RespondWithError(w, r, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large", nil)
	default:
		logging.Warn("Failed to read request body", "path", r.URL.Path, "error", err)
		RespondWithError(w, r, http.StatusBadRequest, CodeBadRequest, "Could not read request body", nil)
	}
}

func respondInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.Error(msg, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	RespondWithError(w, r, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
}

// NotFound answers unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondWithError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RespondWithError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
}
