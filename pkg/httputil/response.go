// Package httputil provides HTTP handler utilities for consistent error
// handling and JSON encoding, including the structured billing error shape
// consumed by the error classifier.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/lexportal/lexportal/pkg/billing"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteErrorMessage writes a plain JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteBillingError writes the structured billing failure shape:
// {"error":{"type","message","code","details"}}. Clients pass this body
// through the error classifier; it is never shown raw.
func WriteBillingError(w http.ResponseWriter, status int, body billing.ErrorBody) {
	WriteJSON(w, status, billing.ErrorEnvelope{Error: &body})
}

// WriteBillingErrorKind writes a structured billing failure for a recognized kind.
func WriteBillingErrorKind(w http.ResponseWriter, status int, kind billing.ErrorKind, message string) {
	WriteBillingError(w, status, billing.ErrorBody{Type: kind.String(), Message: message})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusUnauthorized, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusNotFound, message)
}

// WriteInternalError writes an internal server error response (500)
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteErrorMessage(w, http.StatusInternalServerError, err.Error())
}
