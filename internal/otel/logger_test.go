package otel

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	raw := strings.TrimSpace(buf.String())
	if raw == "" {
		return nil
	}
	var out []map[string]any
	for i, line := range strings.Split(raw, "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", i, err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmitWritesValidJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "sess-1")

	l.Emit(Event{Kind: KindPageRequest, Level: LevelInfo, Comp: "coord", Page: 2, Filter: "platform=all"})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["kind"] != "page.request" {
		t.Errorf("kind=%v, want page.request", got["kind"])
	}
	if got["comp"] != "coord" {
		t.Errorf("comp=%v, want coord", got["comp"])
	}
	if got["page"] != float64(2) {
		t.Errorf("page=%v, want 2", got["page"])
	}
	if got["session_id"] != "sess-1" {
		t.Errorf("session_id=%v, want sess-1", got["session_id"])
	}
}

func TestEmitSetsTime(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "s")

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	l.Close()
	after := time.Now()

	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Time.Before(before) || ev.Time.After(after) {
		t.Errorf("time %v not in [%v, %v]", ev.Time, before, after)
	}
}

func TestDurToMs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "s")
	l.Emit(Event{Kind: KindPageApplied, Dur: 1500 * time.Millisecond})
	l.Close()

	lines := decodeLines(t, &buf)
	if got := lines[0]["dur_ms"]; got != float64(1500) {
		t.Errorf("dur_ms=%v, want 1500", got)
	}
}

func TestOmitempty(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "")
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := strings.TrimSpace(buf.String())
	for _, field := range []string{"dur_ms", "count", "view", "filter", "seq", "slug", "item_id", "err", "msg", "extra", "session_id"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "s")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Emit(Event{Kind: KindViewMarked, ItemID: 7})
		}()
	}
	wg.Wait()
	l.Close()

	if n := len(decodeLines(t, &buf)); n != 100 {
		t.Errorf("expected 100 lines, got %d", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.For("coord").Info(KindPageRequest, "x")
	l.SetRingBuffer(NewRingBuffer(4))
	if l.Dropped() != 0 || l.SessionID() != "" {
		t.Error("nil logger should report zero values")
	}
	l.Close()

	var em Emitter
	em.Error(KindError, errForTest("ignored"))
}

func TestCloseIdempotentAndDropsAfterClose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "s")

	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown})
	l.Close()
	l.Close()

	if n := len(decodeLines(t, &buf)); n != 2 {
		t.Fatalf("expected 2 lines after Close, got %d", n)
	}

	l.Emit(Event{Kind: KindStartup})
	if l.Dropped() != 1 {
		t.Errorf("emit after close should count as dropped, got %d", l.Dropped())
	}
}

func TestDropCounter(t *testing.T) {
	bw := &blockingWriter{
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	l := NewLogger(bw, "s")

	// First emit is picked up by drain, which then blocks in Write.
	l.Emit(Event{Kind: KindPageRequest})
	<-bw.started

	for i := 0; i < writerChanSize+10; i++ {
		l.Emit(Event{Kind: KindPageRequest})
	}
	if l.Dropped() == 0 {
		t.Error("expected drops when channel is full")
	}

	close(bw.block)
	l.Close()
}

type blockingWriter struct {
	started chan struct{}
	block   chan struct{}
	once    sync.Once
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.started)
		<-w.block
	})
	return len(p), nil
}

func TestEmitterHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "s")

	l.For("main").Info(KindStartup, "starting")
	l.For("coord").Warn(KindPageRejected, "page 3 out of order")
	l.For("deeplink").Error(KindItemError, errForTest("boom"))
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	tests := []struct {
		level, kind, comp string
	}{
		{"info", "sys.startup", "main"},
		{"warn", "page.rejected", "coord"},
		{"error", "item.error", "deeplink"},
	}
	for i, tt := range tests {
		if lines[i]["level"] != tt.level || lines[i]["kind"] != tt.kind || lines[i]["comp"] != tt.comp {
			t.Errorf("line %d = %v, want %+v", i, lines[i], tt)
		}
	}
	if lines[2]["err"] != "boom" {
		t.Errorf("err=%v, want boom", lines[2]["err"])
	}
}

type errForTest string

func (e errForTest) Error() string { return string(e) }

func TestRingBufferFedByLogger(t *testing.T) {
	l := NewNullLogger()
	rb := NewRingBuffer(8)
	l.SetRingBuffer(rb)

	l.Emit(Event{Kind: KindPageRequest, Dur: time.Second})
	l.Emit(Event{Kind: KindPageApplied})
	l.Close()

	got := rb.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 events in ring, got %d", len(got))
	}
	if got[0].Dur != time.Second {
		t.Errorf("ring copy should keep Dur, got %v", got[0].Dur)
	}
}
