package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/abelbrown/vitrine/internal/config"
	"github.com/abelbrown/vitrine/internal/store"
)

// newFlagSet returns a flag set carrying the shared --data-dir flag.
func newFlagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	dir := fs.String("data-dir", "", "data directory (default $VITRINE_DATA_DIR or ~/.vitrine)")
	return fs, dir
}

// parse runs fs.Parse, reporting whether the command should stop (help).
func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return true, err
	}
	return false, nil
}

// dataDir resolves the data directory from the flag, then the environment.
func dataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("VITRINE_DATA_DIR")); v != "" {
		return v
	}
	return config.DefaultDataDir()
}

// dbPath returns the path to vitrine.db.
func dbPath(dir string) string {
	return filepath.Join(dir, "vitrine.db")
}

// eventLogPath returns the path to events.jsonl.
func eventLogPath(dir string) string {
	return filepath.Join(dir, "events.jsonl")
}

// openDB opens the session store, refusing to create a fresh database.
func openDB(dir string) (*store.Store, error) {
	path := dbPath(dir)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no session database at %s (run vitrine first)", path)
	}
	return store.Open(path)
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
