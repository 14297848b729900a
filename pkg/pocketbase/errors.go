package pocketbase

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when the PocketBase server answers with a non-2xx
// status. Status and Message mirror the service's error envelope
// {"code": ..., "message": ..., "data": {...}}; Data holds the per-field
// validation details when the server provides them.
type APIError struct {
	Status  int
	Message string
	Data    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pocketbase: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is an APIError with a 401 or 403 status.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// IsBadRequest reports whether err is an APIError with a 400 status.
// Failed password auth surfaces this way.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
