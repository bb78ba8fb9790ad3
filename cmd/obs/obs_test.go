package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/store"
)

const sampleLog = `{"t":"2026-03-01T10:00:00Z","level":"info","kind":"page.request","comp":"coord","session_id":"s1","view":"catalog","seq":1,"page":1}
{"t":"2026-03-01T10:00:01Z","level":"info","kind":"page.applied","comp":"coord","session_id":"s1","view":"catalog","seq":1,"page":1,"dur_ms":40,"count":24}
not json
{"t":"2026-03-01T10:00:02Z","level":"warn","kind":"page.stale","comp":"coord","session_id":"s1","view":"catalog","seq":2,"page":1}
{"t":"2026-03-01T10:00:03Z","level":"info","kind":"item.request","comp":"deeplink","session_id":"s2","seq":3,"slug":"login-modal"}
{"t":"2026-03-01T10:00:04Z","level":"error","kind":"page.error","comp":"coord","session_id":"s2","view":"category:fintech","err":"timeout"}
{"t":"2026-03-01T10:00:05Z","level":"info","kind":"page.applied","comp":"coord","session_id":"s2","view":"category:fintech","seq":4,"page":1,"dur_ms":60}
`

func TestReadTailLinesKeepsLastMatches(t *testing.T) {
	all := func(eventRecord) bool { return true }
	got := readTailLines(strings.NewReader(sampleLog), 2, all)
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].ev.Kind != "page.error" || got[1].ev.Kind != "page.applied" {
		t.Errorf("kinds = %s, %s", got[0].ev.Kind, got[1].ev.Kind)
	}
	if !strings.Contains(string(got[1].raw), `"seq":4`) {
		t.Errorf("raw line not preserved: %s", got[1].raw)
	}

	if got := readTailLines(strings.NewReader(sampleLog), 0, all); len(got) != 0 {
		t.Errorf("n=0 should return nothing, got %d", len(got))
	}
}

func TestEventFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter eventFilter
		want   int
	}{
		{"all", eventFilter{}, 6},
		{"kind prefix", eventFilter{Kind: "page."}, 5},
		{"min level", eventFilter{Level: "warn"}, 2},
		{"component", eventFilter{Comp: "deeplink"}, 1},
		{"session prefix", eventFilter{Session: "s2"}, 3},
		{"view", eventFilter{View: "catalog"}, 3},
		{"slug", eventFilter{Slug: "login-modal"}, 1},
		{"combined", eventFilter{Kind: "page", Session: "s1", Level: "warn"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readTailLines(strings.NewReader(sampleLog), 100, tt.filter.match)
			if len(got) != tt.want {
				t.Errorf("matched %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	ev := eventRecord{
		Time:   time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC),
		Level:  "info",
		Kind:   "page.applied",
		Comp:   "coord",
		View:   "catalog",
		Filter: "platform=ios",
		Seq:    7,
		Page:   2,
		DurMs:  12.5,
		Count:  24,
	}
	out := formatEvent(ev)
	for _, want := range []string{"INFO", "[coord", "page.applied", "#7", "view=catalog", "{platform=ios}", "page=2", "(12.5ms)", "n=24"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatEvent missing %q: %s", want, out)
		}
	}
	if !strings.Contains(formatEvent(eventRecord{Kind: "x"}), "?") {
		t.Error("missing level should render as ?")
	}
}

func TestSummarize(t *testing.T) {
	sum := summarize(strings.NewReader(sampleLog))
	if sum.Events != 6 {
		t.Errorf("Events = %d, want 6", sum.Events)
	}
	if len(sum.Sessions) != 2 {
		t.Errorf("Sessions = %d, want 2", len(sum.Sessions))
	}
	if sum.Kinds["page.applied"] != 2 {
		t.Errorf("applied = %d, want 2", sum.Kinds["page.applied"])
	}
	if got := sum.StaleRatio(); got < 0.33 || got > 0.34 {
		t.Errorf("StaleRatio = %v, want 1/3", got)
	}
	if got := sum.AvgPageMs(); got != 50 {
		t.Errorf("AvgPageMs = %v, want 50", got)
	}
	if sum.Errors["timeout"] != 1 {
		t.Errorf("Errors = %v", sum.Errors)
	}

	var buf bytes.Buffer
	printSummary(&buf, sum)
	for _, want := range []string{"2 applied, 1 stale", "Stale ratio:           33.3%", "timeout", "page.request"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := summarize(strings.NewReader(""))
	if sum.StaleRatio() != 0 || sum.AvgPageMs() != 0 {
		t.Errorf("empty log should have zero ratios, got %v %v", sum.StaleRatio(), sum.AvgPageMs())
	}
}

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dbPath(dir))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	now := time.Now().UTC()
	if err := st.SaveSession(store.Session{ID: "fresh-session", Path: "/item/login-modal", Filter: catalog.NewFilterKey("ios", ""), UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveSession(store.Session{ID: "stale-session", Path: "/", Filter: catalog.DefaultFilterKey(), UpdatedAt: now.Add(-60 * 24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := st.AddViewed("fresh-session", 1, 2, 3); err != nil {
		t.Fatal(err)
	}
	st.Close()
	if err := os.WriteFile(eventLogPath(dir), []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunSessions(t *testing.T) {
	dir := seedDataDir(t)
	var out bytes.Buffer
	if err := runSessions([]string{"--data-dir", dir}, &out); err != nil {
		t.Fatalf("runSessions: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 sessions, got:\n%s", out.String())
	}
	if !strings.HasPrefix(lines[1], "fresh-se") || !strings.Contains(lines[1], "platform=ios") {
		t.Errorf("most recent session should be first: %q", lines[1])
	}
	if !strings.Contains(lines[1], "     3  ") {
		t.Errorf("viewed count missing: %q", lines[1])
	}
}

func TestRunPrune(t *testing.T) {
	dir := seedDataDir(t)
	var out bytes.Buffer
	if err := runPrune([]string{"--data-dir", dir, "--older-than", "720h"}, &out); err != nil {
		t.Fatalf("runPrune: %v", err)
	}
	if !strings.Contains(out.String(), "Pruned 1 session") {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	if err := runSessions([]string{"--data-dir", dir}, &out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "stale-se") {
		t.Errorf("pruned session still listed:\n%s", out.String())
	}

	if err := runPrune([]string{"--data-dir", dir, "--older-than", "0s"}, &out); err == nil {
		t.Error("non-positive --older-than should be rejected")
	}
}

func TestRunStatsWithDB(t *testing.T) {
	dir := seedDataDir(t)
	var out bytes.Buffer
	if err := runStats([]string{"--data-dir", dir, "--db"}, &out); err != nil {
		t.Fatalf("runStats: %v", err)
	}
	for _, want := range []string{"Events:                6", "Sessions:              2", "Viewed items (total):  3"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stats missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunEventsJSON(t *testing.T) {
	dir := seedDataDir(t)
	var out bytes.Buffer
	if err := runEvents([]string{"--data-dir", dir, "--kind", "item", "--json"}, &out); err != nil {
		t.Fatalf("runEvents: %v", err)
	}
	got := strings.TrimSpace(out.String())
	if !strings.HasPrefix(got, "{") || !strings.Contains(got, `"slug":"login-modal"`) || strings.Contains(got, "\n") {
		t.Errorf("expected one raw item line, got:\n%s", got)
	}
}

func TestOpenDBRequiresExistingDatabase(t *testing.T) {
	if _, err := openDB(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("openDB should refuse to create a database")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 8); got != "abc" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Errorf("truncate tiny = %q", got)
	}
}
