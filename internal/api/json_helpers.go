package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"clipstream/internal/apperr"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError performs the single mapping from an error kind to a transport
// status. Unclassified errors become 500 with a masked message.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), envelope{
		Success: false,
		Message: apperr.MessageOf(err),
	})
}

// WriteError is the exported variant used by the server middleware.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func writeValidationError(w http.ResponseWriter, message string, fieldErrors ...string) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: message,
		Errors:  fieldErrors,
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		Success: false,
		Message: "method " + r.Method + " not allowed",
	})
}

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return apperr.New(apperr.Validation, "request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}

// decodeJSONAllowEmpty tolerates an absent or empty body, leaving dest zeroed.
func decodeJSONAllowEmpty(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}
