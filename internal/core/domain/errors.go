package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidIdentity is returned when a login or profile payload lacks an id or email.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrMalformedCredential is returned when a bearer token cannot be decoded.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrSessionExpired is returned when the stored credential's expiry has passed.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnauthorized is returned when the API answers 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetwork is returned when no response was received from the API.
	ErrNetwork = errors.New("network error")
	// ErrServer matches every *ServerError.
	ErrServer = errors.New("server error")
	// ErrNotFound matches a *ServerError carrying a 404.
	ErrNotFound = errors.New("not found")
	// ErrMalformedCollection marks a list response that was not an array.
	ErrMalformedCollection = errors.New("malformed collection")
	// ErrForbidden is returned when the signed-in role may not perform an action.
	ErrForbidden = errors.New("access forbidden")
	// ErrMutationInProgress is returned when the same mutation is already running.
	ErrMutationInProgress = errors.New("mutation already in progress")
)

// ServerError is a non-2xx API response that carried a body.
type ServerError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is match ErrServer for every ServerError and ErrNotFound for 404s.
func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrServer:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
