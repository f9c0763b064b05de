// Package otel records pipeline activity as JSONL events.
//
// Each request through the context pipeline gets a query id (qid) shared by
// every event it produces, so a single request can be followed end to end
// with `contextrt events --qid`.
package otel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event, "<subsystem>.<action>".
type EventKind string

const (
	// Detection and enrichment
	KindDetectComplete   EventKind = "detect.complete"
	KindEnrichStart      EventKind = "enrich.start"
	KindEnrichComplete   EventKind = "enrich.complete"
	KindEnrichFallback   EventKind = "enrich.fallback"
	KindGenerateStart    EventKind = "generate.start"
	KindGenerateComplete EventKind = "generate.complete"
	KindGenerateError    EventKind = "generate.error"
	KindComposeComplete  EventKind = "compose.complete"

	// Request lifecycle
	KindRequestStart    EventKind = "request.start"
	KindRequestComplete EventKind = "request.complete"
	KindRequestStale    EventKind = "request.stale"
	KindSettingsUpdate  EventKind = "settings.update"

	KindStoreError EventKind = "store.error"

	// UI
	KindDismiss  EventKind = "ui.dismiss"
	KindKeyPress EventKind = "ui.key"

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is one JSONL record. Kind is required; Time is filled on Emit.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "pipeline", "enrich", "brain", "ui", "server"
	SessionID string         `json:"session_id,omitempty"`
	QueryID   string         `json:"qid,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Entity    string         `json:"entity,omitempty"` // "organization:Tesla"
	Stage     string         `json:"stage,omitempty"`  // "search" or "details"
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

// NewQueryID returns a fresh correlation id for one pipeline request.
func NewQueryID() string {
	return uuid.NewString()
}

type qidKey struct{}

// WithQueryID attaches qid to ctx so downstream stages can stamp events.
func WithQueryID(ctx context.Context, qid string) context.Context {
	return context.WithValue(ctx, qidKey{}, qid)
}

// QueryIDFrom returns the qid attached by WithQueryID, or "".
func QueryIDFrom(ctx context.Context) string {
	qid, _ := ctx.Value(qidKey{}).(string)
	return qid
}
