// Package response writes the JSON envelope every endpoint answers with:
//
//	{"success": true,  "message": "...", "data": ...}
//	{"success": false, "message": "...", "error": ...}
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body shape shared by every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Write encodes body with the given status.
func Write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 with data.
func Success(w http.ResponseWriter, data interface{}) {
	Write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// SuccessMessage sends a 200 with a message and optional data.
func SuccessMessage(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Error sends a failure envelope without detail.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Message: message})
}

// ErrorDetail sends a failure envelope whose error field carries detail,
// typically err.Error() or a field→message map.
func ErrorDetail(w http.ResponseWriter, status int, message string, detail interface{}) {
	Write(w, status, Envelope{Message: message, Error: detail})
}

// ValidationError sends a 400 with the field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	ErrorDetail(w, http.StatusBadRequest, "Validation failed", errs)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// InternalError sends a 500 naming the failed operation, with err's text as
// detail.
func InternalError(w http.ResponseWriter, message string, err error) {
	var detail interface{}
	if err != nil {
		detail = err.Error()
	}
	ErrorDetail(w, http.StatusInternalServerError, message, detail)
}
