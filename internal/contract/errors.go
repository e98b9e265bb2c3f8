package contract

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the server answered with a non-2xx status.
type ServerError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server error: %s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// SerializationError means a payload could not be encoded or decoded.
type SerializationError struct {
	Source string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error in %s: %v", e.Source, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var se *ServerError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsNetworkError reports whether err means no response was received.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsSerializationError reports whether err comes from a bad payload.
func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}
