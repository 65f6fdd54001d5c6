package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by APIError.Is.
var (
	ErrUnauthorized       = errors.New("client: unauthorized")
	ErrInvalidCredentials = errors.New("client: invalid credentials")
	ErrNotFound           = errors.New("client: not found")
	ErrValidation         = errors.New("client: validation failed")
	ErrConflict           = errors.New("client: conflict")
)

const codeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"

// APIError is a non-2xx response from the portal API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("portal API returned %d %s", e.Status, http.StatusText(e.Status))
}

// Is maps the response onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidCredentials:
		return e.Code == codeInvalidCredentials
	case ErrUnauthorized:
		return (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden) && e.Code != codeInvalidCredentials
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity || e.Status == http.StatusBadRequest
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}
