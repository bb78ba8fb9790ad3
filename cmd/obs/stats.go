package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// logSummary aggregates request outcomes from the event log.
type logSummary struct {
	Events   int
	Sessions map[string]bool
	Kinds    map[string]int
	Errors   map[string]int // err text → count, page and item errors only

	pageDurTotal float64
	pageDurN     int
}

// StaleRatio is the share of page responses discarded as stale.
func (s logSummary) StaleRatio() float64 {
	applied, stale := s.Kinds["page.applied"], s.Kinds["page.stale"]
	if applied+stale == 0 {
		return 0
	}
	return float64(stale) / float64(applied+stale)
}

// AvgPageMs is the mean duration of applied page requests.
func (s logSummary) AvgPageMs() float64 {
	if s.pageDurN == 0 {
		return 0
	}
	return s.pageDurTotal / float64(s.pageDurN)
}

func summarize(r io.Reader) logSummary {
	sum := logSummary{
		Sessions: make(map[string]bool),
		Kinds:    make(map[string]int),
		Errors:   make(map[string]int),
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		var ev eventRecord
		if json.Unmarshal(scanner.Bytes(), &ev) != nil {
			continue
		}
		sum.Events++
		sum.Kinds[ev.Kind]++
		if ev.SessionID != "" {
			sum.Sessions[ev.SessionID] = true
		}
		switch ev.Kind {
		case "page.applied":
			if ev.DurMs > 0 {
				sum.pageDurTotal += ev.DurMs
				sum.pageDurN++
			}
		case "page.error", "item.error":
			if ev.Err != "" {
				sum.Errors[ev.Err]++
			}
		}
	}
	return sum
}

func runStats(args []string, out io.Writer) error {
	fs, dir := newFlagSet("stats")
	withDB := fs.Bool("db", false, "include session database totals")
	if stop, err := parse(fs, args); stop {
		return err
	}
	d := dataDir(*dir)

	f, err := os.Open(eventLogPath(d))
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	sum := summarize(f)
	f.Close()

	printSummary(out, sum)

	if !*withDB {
		return nil
	}
	st, err := openDB(d)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(1 << 20)
	if err != nil {
		return err
	}
	counts, err := st.ViewedCounts()
	if err != nil {
		return err
	}
	viewed := 0
	for _, n := range counts {
		viewed += n
	}
	fmt.Fprintf(out, "\n--- Session DB ---\n")
	fmt.Fprintf(out, "Sessions:              %d\n", len(sessions))
	fmt.Fprintf(out, "Viewed items (total):  %d\n", viewed)
	if len(sessions) > 0 {
		fmt.Fprintf(out, "Last active:           %s\n", sessions[0].UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printSummary(out io.Writer, sum logSummary) {
	fmt.Fprintf(out, "Events:                %d\n", sum.Events)
	fmt.Fprintf(out, "Sessions seen:         %d\n", len(sum.Sessions))

	fmt.Fprintf(out, "\nPages:   %d requested, %d applied, %d stale, %d rejected, %d failed, %d skipped\n",
		sum.Kinds["page.request"], sum.Kinds["page.applied"], sum.Kinds["page.stale"],
		sum.Kinds["page.rejected"], sum.Kinds["page.error"], sum.Kinds["page.skipped"])
	fmt.Fprintf(out, "Stale ratio:           %.1f%%\n", sum.StaleRatio()*100)
	if avg := sum.AvgPageMs(); avg > 0 {
		fmt.Fprintf(out, "Avg page latency:      %.*fms\n", durPrecision(avg), avg)
	}
	fmt.Fprintf(out, "Items:   %d requested, %d opened, %d stale, %d missing, %d failed\n",
		sum.Kinds["item.request"], sum.Kinds["item.open"], sum.Kinds["item.stale"],
		sum.Kinds["item.not_found"], sum.Kinds["item.error"])
	fmt.Fprintf(out, "Views:   %d marked, %d forwarded, %d forward errors\n",
		sum.Kinds["view.marked"], sum.Kinds["view.forwarded"], sum.Kinds["view.forward_error"])

	if len(sum.Errors) > 0 {
		type errCount struct {
			msg string
			n   int
		}
		errs := make([]errCount, 0, len(sum.Errors))
		for msg, n := range sum.Errors {
			errs = append(errs, errCount{msg, n})
		}
		sort.Slice(errs, func(i, j int) bool {
			if errs[i].n != errs[j].n {
				return errs[i].n > errs[j].n
			}
			return errs[i].msg < errs[j].msg
		})
		fmt.Fprintf(out, "\nTop errors:\n")
		for i, e := range errs {
			if i == 5 {
				break
			}
			fmt.Fprintf(out, "  %4d  %s\n", e.n, truncate(e.msg, 70))
		}
	}

	kinds := make([]string, 0, len(sum.Kinds))
	for k := range sum.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(out, "\nBy kind:\n")
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-20s %d\n", k, sum.Kinds[k])
	}
}
