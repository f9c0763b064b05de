package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransport, "wiki", "search", "", cause)

	if !errors.Is(err, ErrTransport) {
		t.Errorf("errors.Is(err, ErrTransport) = false")
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not preserved")
	}
	if !strings.Contains(err.Error(), "wiki: search") {
		t.Errorf("detail missing from %q", err.Error())
	}
}

func TestWrapRetagsDeadline(t *testing.T) {
	err := Wrap(ErrTransport, "wiki", "details", "", fmt.Errorf("do: %w", context.DeadlineExceeded))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("deadline should be tagged ErrTimeout, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Errorf("deadline should not keep ErrTransport marker")
	}
}

func TestWrapNilMarkerDefaultsToTransport(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("nil marker should default to ErrTransport")
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Errorf("empty detail should read 'service failure', got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{Wrap(ErrNotFound, "wiki", "search", "no results", nil), ErrNotFound},
		{Wrap(ErrMalformed, "brain", "parse", "", errors.New("eof")), ErrMalformed},
		{Wrap(ErrUpstream, "brain", "generate", "", &StatusError{StatusCode: 503}), ErrUpstream},
		{errors.New("plain"), nil},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStatusError(t *testing.T) {
	e := &StatusError{StatusCode: 429, Body: " slow down "}
	if e.Error() != "http 429: slow down" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !e.Retryable() {
		t.Error("429 should be retryable")
	}
	if (&StatusError{StatusCode: 404}).Retryable() {
		t.Error("404 should not be retryable")
	}
}
