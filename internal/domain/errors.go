package domain

import (
	"context"
	"errors"
	"fmt"
)

// FallbackErrorMessage is shown when the service gives no detail of its own.
const FallbackErrorMessage = "Failed to fetch data"

// Sentinel errors for recommendation operations
var (
	// ErrServiceOffline indicates the recommendation service is unreachable
	ErrServiceOffline = errors.New("recommendation service is unreachable")

	// ErrMalformedResponse indicates a 2xx response whose body could not be decoded
	ErrMalformedResponse = errors.New("malformed response from recommendation service")

	// ErrServiceUnavailable indicates the client stopped calling the service after repeated failures
	ErrServiceUnavailable = errors.New("recommendation service temporarily unavailable")
)

// ServiceError is a non-2xx answer from the recommendation service.
type ServiceError struct {
	Status int
	Detail string // value of the "detail" field, empty if absent
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s (status %d)", FallbackErrorMessage, e.Status)
}

// Temporary reports whether the status is a server-side failure.
func (e *ServiceError) Temporary() bool {
	return e.Status >= 500
}

// UserMessage converts an error into the single line shown next to the list.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Detail != "" {
			return svcErr.Detail
		}
		return FallbackErrorMessage
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}

	for _, sentinel := range []error{ErrServiceOffline, ErrMalformedResponse, ErrServiceUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}
