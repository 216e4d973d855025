// Package handlers provides HTTP response utilities for JSON APIs.
// These stateless functions standardize response formatting across handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RequestIDHeader carries the correlation id of a request. The request id
// middleware sets it on the response before handlers run.
const RequestIDHeader = "X-Request-ID"

// InternalErrorDetail is the detail reported for 500 responses.
const InternalErrorDetail = "internal error"

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Detail        string `json:"detail"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// RespondJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs the error and writes the {"detail": ...} envelope.
// Internal errors hide the cause behind a generic detail and expose the
// correlation id instead.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	requestID := w.Header().Get(RequestIDHeader)

	body := ErrorResponse{Detail: err.Error()}
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("handler error", "error", err, "status", status, "request_id", requestID)
		body = ErrorResponse{
			Detail:        InternalErrorDetail,
			CorrelationID: requestID,
		}
	case status > http.StatusInternalServerError:
		logger.Error("handler error", "error", err, "status", status, "request_id", requestID)
	default:
		logger.Warn("request rejected", "error", err, "status", status, "request_id", requestID)
	}

	RespondJSON(w, status, body)
}

// RespondDetail writes an error envelope with an explicit detail string.
func RespondDetail(w http.ResponseWriter, status int, detail string) {
	RespondJSON(w, status, ErrorResponse{Detail: detail})
}
