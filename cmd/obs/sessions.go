package main

import (
	"fmt"
	"io"
	"time"
)

func runSessions(args []string, out io.Writer) error {
	fs, dir := newFlagSet("sessions")
	limit := fs.IntP("limit", "n", 10, "number of sessions to list")
	if stop, err := parse(fs, args); stop {
		return err
	}

	st, err := openDB(dataDir(*dir))
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(*limit)
	if err != nil {
		return err
	}
	counts, err := st.ViewedCounts()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions.")
		return nil
	}

	fmt.Fprintf(out, "%-8s  %-19s  %6s  %-28s  %s\n", "SESSION", "UPDATED", "VIEWED", "PATH", "FILTER")
	for _, s := range sessions {
		fmt.Fprintf(out, "%-8s  %-19s  %6d  %-28s  %s\n",
			shortID(s.ID),
			s.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			counts[s.ID],
			truncate(s.Path, 28),
			s.Filter.String())
	}
	return nil
}

func runPrune(args []string, out io.Writer) error {
	fs, dir := newFlagSet("prune")
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "delete sessions idle for longer than this")
	if stop, err := parse(fs, args); stop {
		return err
	}
	if *olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	st, err := openDB(dataDir(*dir))
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.PruneSessions(time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pruned %d session(s) idle for more than %s.\n", n, *olderThan)
	return nil
}

// shortID returns the first eight characters of a session id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
