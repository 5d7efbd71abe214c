package main

import (
	"encoding/json"
	"net/http"

	"orderdesk/pkg/apperr"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err in the API error shape. Anything that is not an *apperr.Error is
// logged in full and reported as INTERNAL_ERROR.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error(r.Context(), "unhandled_error", "method", r.Method, "path", r.URL.Path, "error", err)
		e = apperr.New(apperr.Internal, "INTERNAL_ERROR", "An unexpected error occurred")
	} else {
		log.Warn(r.Context(), "request_rejected", "code", e.Code, "status", e.Status, "path", r.URL.Path)
	}
	if e.Challenge != "" {
		w.Header().Set("WWW-Authenticate", e.Challenge)
	}
	writeJSON(w, e.Status, errorResponse{Error: errorBody{Code: e.Code, Message: e.Message, Details: e.Details}})
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.New(apperr.ValidationFailed, "INVALID_REQUEST_BODY", "Request body is not valid JSON for this endpoint").
			WithDetail("reason", err.Error())
	}
	return nil
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.Newf(apperr.NotFound, "ROUTE_NOT_FOUND", "No route for %s %s", r.Method, r.URL.Path))
}
