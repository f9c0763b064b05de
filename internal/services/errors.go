// Package services defines the error taxonomy shared by the external
// service clients (knowledge source, generative model).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks connection failures and non-success HTTP statuses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformed marks responses missing expected fields.
	ErrMalformed = errors.New("malformed response")
	// ErrNotFound marks well-formed responses with an empty result set.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks explicit rejections from the generative service.
	ErrUpstream = errors.New("upstream rejection")
	// ErrTimeout marks calls that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration marks clients that cannot run with their settings.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error tagged with marker so callers can classify it with
// errors.Is. Context deadline errors are re-tagged as ErrTimeout regardless
// of marker.
func Wrap(marker error, service, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		marker = ErrTimeout
	}
	detail := buildDetail(service, operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Classify returns the taxonomy marker carried by err, or nil.
func Classify(err error) error {
	for _, marker := range []error{ErrTimeout, ErrNotFound, ErrMalformed, ErrUpstream, ErrConfiguration, ErrTransport} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(service, operation, message string) string {
	parts := make([]string, 0, 3)
	if service = strings.TrimSpace(service); service != "" {
		parts = append(parts, service)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
