package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountNotActive       = errors.New("account not active")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrConflict               = errors.New("conflict")
	ErrTooManyRequests        = errors.New("too many requests")
	ErrUnavailable            = errors.New("service unavailable")
)

// APIError is a non-2xx response decoded from the server's error envelope.
// errors.Is matches it against the sentinel of its code.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "INVALID_CREDENTIALS":
		return ErrInvalidCredentials
	case "EMAIL_ALREADY_REGISTERED":
		return ErrEmailAlreadyRegistered
	case "UNAUTHORIZED":
		return ErrUnauthorized
	case "FORBIDDEN":
		return ErrForbidden
	case "NOT_FOUND":
		return ErrNotFound
	case "VALIDATION_FAILED":
		return ErrValidation
	case "CONFLICT":
		return ErrConflict
	case "TOO_MANY_REQUESTS":
		return ErrTooManyRequests
	}
	if e.Status >= http.StatusInternalServerError || e.Status == 0 {
		return ErrUnavailable
	}
	return nil
}

// AccountNotActiveError is returned by Login for pending or rejected accounts.
type AccountNotActiveError struct {
	Status  domain.AccountStatus
	Message string
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("account not active (%s)", e.Status)
}

func (e *AccountNotActiveError) Is(target error) bool {
	return target == ErrAccountNotActive
}
