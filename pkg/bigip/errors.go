package bigip

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from iControl REST
type APIError struct {
	Status  int    // HTTP status code
	Code    int    // "code" from the error body, if any
	Message string // "message" from the error body, or the status text
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bigip %s: %d %s", e.Path, e.Status, e.Message)
}

// NotFound reports whether the object or collection does not exist
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Unauthorized reports whether the credentials were rejected
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func newAPIError(status int, path string, body []byte) *APIError {
	e := &APIError{Status: status, Path: path, Message: http.StatusText(status)}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		e.Code = payload.Code
		e.Message = payload.Message
	}
	return e
}
