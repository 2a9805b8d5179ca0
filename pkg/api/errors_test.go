package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gabrielmiguelok/commentkit/pkg/forms"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
		message   string
	}{
		{
			name:      "network",
			err:       &NetworkError{Err: errors.New("refused")},
			kind:      KindNetwork,
			retryable: true,
			message:   "Connection problem. Check your internet connection.",
		},
		{
			name:      "server 503",
			err:       &APIError{Status: http.StatusServiceUnavailable, Detail: "down"},
			kind:      KindServer,
			retryable: true,
			message:   "Server error. Please try again later.",
		},
		{
			name:      "client 404",
			err:       &APIError{Status: http.StatusNotFound},
			kind:      KindClient,
			retryable: false,
			message:   "Resource not found",
		},
		{
			name:      "client 401",
			err:       &APIError{Status: http.StatusUnauthorized},
			kind:      KindClient,
			retryable: false,
			message:   "Authentication required",
		},
		{
			name:      "client 429 retryable",
			err:       &APIError{Status: http.StatusTooManyRequests},
			kind:      KindClient,
			retryable: true,
			message:   "Too many requests. Please wait and try again.",
		},
		{
			name:      "validation",
			err:       &forms.ValidationError{Fields: map[string][]string{"content": {"Must be at least 10 characters"}}},
			kind:      KindValidation,
			retryable: false,
			message:   "content: Must be at least 10 characters",
		},
		{
			name:      "generic",
			err:       errors.New("weird"),
			kind:      KindGeneric,
			retryable: true,
			message:   "Something went wrong. Please try again.",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.err)
			if got.Kind != c.kind {
				t.Errorf("kind = %v, want %v", got.Kind, c.kind)
			}
			if got.Retryable != c.retryable {
				t.Errorf("retryable = %v, want %v", got.Retryable, c.retryable)
			}
			if got.Message != c.message {
				t.Errorf("message = %q, want %q", got.Message, c.message)
			}
		})
	}
}

func TestClassify_WrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("attempt budget exhausted"), &APIError{Status: 502})
	got := Classify(wrapped)
	if got.Kind != KindServer || !got.Retryable {
		t.Errorf("wrapped 502 misclassified: %+v", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(&APIError{Status: 400}) {
		t.Errorf("400 must not be retryable")
	}
	if !IsRetryable(&APIError{Status: 500}) {
		t.Errorf("500 must be retryable")
	}
}

func TestKindString(t *testing.T) {
	if KindNetwork.String() != "network" || Kind(99).String() != "generic" {
		t.Errorf("unexpected kind strings")
	}
}

func TestAPIError_FallbackMessage(t *testing.T) {
	e := &APIError{Status: 404}
	if e.Error() != "HTTP 404: Not Found" {
		t.Errorf("got %q", e.Error())
	}
}
