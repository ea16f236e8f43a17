package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a 2xx body cannot be interpreted.
var ErrMalformedResponse = errors.New("malformed upstream response")

// StatusError reports a non-2xx response from the analytics API.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("upstream %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// IsAuthFailure reports whether err carries a 401 or 403 from upstream.
// Callers redirect to the login page on auth failures instead of showing
// an error.
func IsAuthFailure(err error) bool {
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	default:
		return false
	}
}

// StatusCode extracts the upstream status from err, or 0 when err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
