package otel

import (
	"os"
	"sync/atomic"
)

// TraceEnv turns on per-message tracing when set to any non-empty value.
const TraceEnv = "CONTEXTRT_TRACE"

var traceEnabled atomic.Bool

func init() {
	ReloadTrace()
}

// ReloadTrace re-reads TraceEnv.
func ReloadTrace() {
	traceEnabled.Store(os.Getenv(TraceEnv) != "")
}

// TraceEnabled reports whether CONTEXTRT_TRACE is set. When on, the TUI
// emits a trace.msg_received event for every tea.Msg it handles and the
// server for every inbound message.
func TraceEnabled() bool {
	return traceEnabled.Load()
}
