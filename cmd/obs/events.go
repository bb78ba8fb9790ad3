package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// eventRecord mirrors otel.Event for JSON decoding.
// Decoding from JSONL keeps old logs readable as the event schema evolves.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	View      string         `json:"view"`
	Filter    string         `json:"filter"`
	Seq       uint64         `json:"seq"`
	Page      int            `json:"page"`
	Slug      string         `json:"slug"`
	ItemID    int64          `json:"item_id"`
	Path      string         `json:"path"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

// eventFilter selects events by the viewer's flags. Empty fields match all.
type eventFilter struct {
	Kind    string // prefix, e.g. "page" or "item."
	Level   string // minimum level
	Comp    string
	Session string
	View    string
	Slug    string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.Kind != "" && !strings.HasPrefix(ev.Kind, f.Kind) {
		return false
	}
	if f.Level != "" && levelRank(ev.Level) < levelRank(f.Level) {
		return false
	}
	if f.Comp != "" && ev.Comp != f.Comp {
		return false
	}
	if f.Session != "" && !strings.HasPrefix(ev.SessionID, f.Session) {
		return false
	}
	if f.View != "" && ev.View != f.View {
		return false
	}
	if f.Slug != "" && ev.Slug != f.Slug {
		return false
	}
	return true
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(ev eventRecord) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-8s] %-16s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Seq > 0 {
		parts = append(parts, fmt.Sprintf("#%d", ev.Seq))
	}
	if ev.View != "" {
		parts = append(parts, "view="+ev.View)
	}
	if ev.Filter != "" {
		parts = append(parts, "{"+ev.Filter+"}")
	}
	if ev.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", ev.Page))
	}
	if ev.Slug != "" {
		parts = append(parts, "slug="+ev.Slug)
	}
	if ev.Path != "" {
		parts = append(parts, "path="+ev.Path)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

func runEvents(args []string, out io.Writer) error {
	fs, dir := newFlagSet("events")
	tail := fs.Int("tail", 50, "number of recent lines to show")
	follow := fs.BoolP("follow", "f", false, "follow mode (like tail -f)")
	var filter eventFilter
	fs.StringVar(&filter.Kind, "kind", "", "filter by event kind prefix (e.g. 'page')")
	fs.StringVar(&filter.Level, "level", "", "minimum level: debug, info, warn, error")
	fs.StringVar(&filter.Comp, "comp", "", "filter by component name")
	fs.StringVar(&filter.Session, "session", "", "filter by session id prefix")
	fs.StringVar(&filter.View, "view", "", "filter by view scope, e.g. category:fintech")
	fs.StringVar(&filter.Slug, "slug", "", "filter by item slug")
	rawJSON := fs.Bool("json", false, "output raw JSON lines")
	if stop, err := parse(fs, args); stop {
		return err
	}

	logPath := eventLogPath(dataDir(*dir))
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run vitrine with event_log enabled first): %w", logPath, err)
	}
	defer f.Close()

	show := func(l parsedLine) {
		if *rawJSON {
			fmt.Fprintln(out, string(l.raw))
			return
		}
		fmt.Fprintln(out, formatEvent(l.ev))
	}

	for _, l := range readTailLines(f, *tail, filter.match) {
		show(l)
	}
	if !*follow {
		return nil
	}

	// The scanner consumed the file to EOF; poll for appended lines.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filter.match(ev) {
			show(parsedLine{ev: ev, raw: line})
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
// Undecodable lines are skipped.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
