package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind buckets an error for retry and messaging decisions.
type Kind int

const (
	// KindGeneric is an unclassified error. Retryable.
	KindGeneric Kind = iota
	// KindNetwork means the transport could not reach the host. Retryable.
	KindNetwork
	// KindValidation is malformed client-side input. Never retried.
	KindValidation
	// KindClient is a 4xx backend response. Retryable only for 429.
	KindClient
	// KindServer is a 5xx backend response. Retryable.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "generic"
	}
}

// NetworkMessage is the uniform transport-failure message.
const NetworkMessage = "Network error: Unable to connect to API"

// APIError is a non-success backend response: the parsed detail message
// when the body had one, otherwise "HTTP <status>: <statusText>".
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
}

// NetworkError is a transport-level failure (host unreachable).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return NetworkMessage }

func (e *NetworkError) Unwrap() error { return e.Err }

// validationTagged matches forms.ValidationError without importing it.
type validationTagged interface {
	IsValidation() bool
}

// Classification is the result of mapping an error onto the taxonomy.
type Classification struct {
	Kind      Kind
	Message   string
	Retryable bool
}

// Classify maps any error to a taxonomy bucket with a canned user-facing
// message. It is pure: no I/O, no mutation of the input.
func Classify(err error) Classification {
	var vErr validationTagged
	if errors.As(err, &vErr) && vErr.IsValidation() {
		return Classification{Kind: KindValidation, Message: err.Error(), Retryable: false}
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return Classification{
			Kind:      KindNetwork,
			Message:   "Connection problem. Check your internet connection.",
			Retryable: true,
		}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status >= 500:
			return Classification{
				Kind:      KindServer,
				Message:   "Server error. Please try again later.",
				Retryable: true,
			}
		case apiErr.Status >= 400:
			return Classification{
				Kind:      KindClient,
				Message:   clientMessage(apiErr.Status),
				Retryable: apiErr.Status == http.StatusTooManyRequests,
			}
		}
	}

	return Classification{
		Kind:      KindGeneric,
		Message:   "Something went wrong. Please try again.",
		Retryable: true,
	}
}

func clientMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request. Please check your input."
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait and try again."
	default:
		return fmt.Sprintf("Request failed (HTTP %d)", status)
	}
}

// IsRetryable reports whether the error classifies as retryable:
// network failures, 5xx, 429, and unclassified errors.
func IsRetryable(err error) bool {
	return Classify(err).Retryable
}
