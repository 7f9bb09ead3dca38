package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches request errors with a 401 or 403 status.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingToken is returned by calls that need a bearer token.
	ErrMissingToken = errors.New("missing token")
)

// RequestError reports a non-2xx response or a transport failure for a
// single API call.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("Error en %s: %d %s: %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("Error en %s: %d %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("Error en %s: %v", e.Path, e.Err)
	default:
		return "Error en " + e.Path
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is reports ErrUnauthorized for rejected credentials.
func (e *RequestError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
