// Command obs is the debugging and maintenance CLI for vitrine.
//
// Usage:
//
//	obs                     Show help
//	obs events              JSONL event log viewer
//	obs stats               Request outcomes from the event log
//	obs sessions            Recent sessions with viewed counts
//	obs prune               Delete idle sessions
package main

import (
	"fmt"
	"os"
)

const usage = `obs - vitrine debug & maintenance CLI

Usage:
  obs <command> [flags]

Commands:
  events      JSONL event log viewer
  stats       Request outcomes, stale discards and durations from the event log
  sessions    Recent sessions with their location, filter and viewed count
  prune       Delete sessions idle for longer than --older-than

Environment:
  VITRINE_DATA_DIR   Data directory (default ~/.vitrine)

Run 'obs <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "events":
		err = runEvents(args, os.Stdout)
	case "stats":
		err = runStats(args, os.Stdout)
	case "sessions":
		err = runSessions(args, os.Stdout)
	case "prune":
		err = runPrune(args, os.Stdout)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "obs: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "obs %s: %v\n", cmd, err)
		os.Exit(1)
	}
}
