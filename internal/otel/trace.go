package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is read on the UI goroutine for every message, so it is an
// atomic flag set once at init.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("VITRINE_TRACE") != "")
}

// TraceEnabled reports whether VITRINE_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled overrides the flag in tests.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
