package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the credential is missing or was refused (401).
	ErrUnauthorized = errors.New("session expired, please login again")
	// ErrRejected means the backend refused the payload.
	ErrRejected = errors.New("request rejected")
	// ErrTransport covers network failures and unreadable replies.
	ErrTransport = errors.New("network error or API failed, please try again")
)

// APIError carries the backend's message for a refused request.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrRejected }

// Message returns the text to show the user for err.
func Message(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	default:
		return ErrTransport.Error()
	}
}
