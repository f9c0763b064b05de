package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/contextrt/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	if result := debugOverlay(nil, 80, 24); result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindRequestStart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindRequestStart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindRequestComplete, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindRequestStale, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindGenerateError, Time: time.Now()})

	result := debugOverlay(ring, 80, 40)

	for _, want := range []string{"Pipeline Stats", "2 started, 1 complete, 1 stale", "0 complete, 1 errors", "5 / 64 events"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindEnrichFallback, Time: time.Now(), Entity: "person:Unknown Person"})
	ring.Push(otel.Event{Kind: otel.KindGenerateError, Time: time.Now(), Err: "timeout"})
	ring.Push(otel.Event{Kind: otel.KindRequestStart, Time: time.Now(), QueryID: "abcdef1234567890"})

	result := debugOverlay(ring, 80, 40)

	for _, want := range []string{"Recent Events", "person:Unknown Person", "ERR:timeout", "qid:abcdef12"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindRequestStart, Time: time.Now()})
	}

	result := debugOverlay(ring, 80, 10)
	if result == "" {
		t.Fatal("overlay should still render with small height")
	}
	if lines := strings.Count(result, "\n"); lines > 20 {
		t.Errorf("overlay should be truncated, got %d lines", lines)
	}
}

func TestDebugToggle(t *testing.T) {
	c := NewController(Config{Backend: newFakeBackend(), Ring: otel.NewRingBuffer(16), AutoDisplay: true})

	model, _ := c.Update(tea.KeyMsg{Type: tea.KeyF2})
	c = model.(Controller)
	if !c.debugVisible {
		t.Fatal("f2 should show debug overlay")
	}
	if view := c.View(); !strings.Contains(view, "[DEBUG]") {
		t.Errorf("debug view should contain '[DEBUG]', got:\n%s", view)
	}

	model, _ = c.Update(tea.KeyMsg{Type: tea.KeyF2})
	if model.(Controller).debugVisible {
		t.Error("second f2 should hide debug overlay")
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{-5 * time.Second, "0ms"},
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.dur); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}
