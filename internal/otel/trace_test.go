package otel

import "testing"

func TestTraceFlag(t *testing.T) {
	orig := TraceEnabled()
	t.Cleanup(func() { setTraceEnabled(orig) })

	for _, want := range []bool{true, false, true} {
		setTraceEnabled(want)
		if got := TraceEnabled(); got != want {
			t.Errorf("TraceEnabled()=%t after set(%t)", got, want)
		}
	}
}
