// Command vitrine browses a paginated UI-pattern catalog in the terminal.
//
// Usage:
//
//	vitrine [flags] [path]
//
// path is an optional location to open, such as /item/login-modal or
// /category/onboarding. Without one the last session is resumed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/abelbrown/vitrine/internal/access"
	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/catalogtest"
	"github.com/abelbrown/vitrine/internal/config"
	"github.com/abelbrown/vitrine/internal/deeplink"
	"github.com/abelbrown/vitrine/internal/fetch"
	"github.com/abelbrown/vitrine/internal/logging"
	"github.com/abelbrown/vitrine/internal/metrics"
	"github.com/abelbrown/vitrine/internal/otel"
	"github.com/abelbrown/vitrine/internal/store"
	"github.com/abelbrown/vitrine/internal/ui"
	"github.com/abelbrown/vitrine/internal/viewed"
)

// sessionRetention is how long idle sessions are kept for resume.
const sessionRetention = 30 * 24 * time.Hour

// searchDebounce is the idle time before a typed query is applied.
const searchDebounce = 250 * time.Millisecond

func main() {
	if err := run(os.Args[1:]); err != nil {
		fatal("vitrine: %v", err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("vitrine", pflag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default <data-dir>/config.yaml)")
	dataDir := fs.String("data-dir", "", "directory for the session database and logs")
	apiURL := fs.String("api", "", "catalog API base URL")
	plan := fs.String("plan", "", "access plan: free or pro")
	resume := fs.Bool("resume", true, "resume the most recent session")
	demo := fs.Bool("demo", false, "browse a generated catalog served locally")
	demoItems := fs.Int("demo-items", 240, "number of items in the demo catalog")
	demoSeed := fs.Uint64("demo-seed", 42, "seed for the demo catalog")
	debug := fs.Bool("debug", false, "debug-level diagnostic log")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vitrine [flags] [path]\n\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	dir := config.DefaultDataDir()
	if *dataDir != "" {
		dir = *dataDir
	}
	path := *configPath
	if path == "" {
		path = config.Path(dir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if fs.Changed("api") {
		cfg.API.BaseURL = *apiURL
	}
	if fs.Changed("plan") {
		cfg.Access.Plan = *plan
	}
	if fs.Changed("resume") {
		cfg.UI.Resume = *resume
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	if err := logging.Init(cfg.DataDir, level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	if *demo {
		demoCatalog := catalogtest.New(catalogtest.Generate(*demoSeed, *demoItems))
		srv := demoCatalog.Start()
		defer srv.Close()
		cfg.API.BaseURL = srv.URL
		logging.Info("Demo catalog started", "url", srv.URL, "items", *demoItems)
	}

	// Session store
	dbPath := filepath.Join(cfg.DataDir, "vitrine.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()
	if n, err := st.PruneSessions(time.Now().Add(-sessionRetention)); err != nil {
		logging.Warn("Failed to prune sessions", "error", err)
	} else if n > 0 {
		logging.Info("Pruned idle sessions", "count", n)
	}

	sess := resumeSession(st, cfg.UI.Resume)
	if fs.NArg() > 0 {
		sess.Path = fs.Arg(0)
	}

	// Event log
	events := otel.NewNullLogger()
	if cfg.EventLog {
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logging.Warn("Event log unavailable", "error", err)
		} else {
			defer f.Close()
			events = otel.NewLogger(f, sess.ID)
		}
	}
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	defer events.Close()

	m := metrics.New()

	opts := fetch.OptionsFromConfig(cfg.API, sess.ID)
	opts.Metrics = m
	client, err := fetch.New(opts)
	if err != nil {
		return err
	}

	fwd := viewed.NewForwarder(client, viewed.ForwarderOptions{
		Events:  events.For("viewed"),
		Metrics: m,
	})
	defer fwd.Close()

	seed, err := st.ViewedIDs(sess.ID)
	if err != nil {
		logging.Warn("Failed to load viewed items", "session", sess.ID, "error", err)
	}
	ledger := viewed.NewLedger(viewed.Options{
		SessionID: sess.ID,
		Seed:      seed,
		Forwarder: fwd,
		Persist:   st,
		Events:    events.For("viewed"),
		Metrics:   m,
	})

	if err := st.SaveSession(sess); err != nil {
		logging.Warn("Failed to save session", "error", err)
	}

	saver := newSessionSaver(st, sess.ID)
	app := ui.NewAppWithConfig(ui.AppConfig{
		API:            client,
		Location:       deeplink.NewMemoryLocation(sess.Path),
		Ledger:         ledger,
		Policy:         access.ForPlan(cfg.Access.Plan, cfg.Access.FreeLimit),
		Filter:         sess.Filter,
		PageSize:       cfg.Catalog.PageSize,
		PrefetchRows:   cfg.Catalog.PrefetchRows,
		Timeout:        cfg.API.Timeout,
		Wrap:           cfg.UI.WrapNavigation,
		SearchDebounce: searchDebounce,
		SaveSession:    saver.Cmd,
		Obs: ui.ObsConfig{
			Logger:  events,
			Ring:    ring,
			Metrics: m,
			Breaker: client.BreakerState,
		},
	})

	events.For("main").Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindStartup,
		Path:   sess.Path,
		Filter: sess.Filter.String(),
		Count:  len(seed),
	})
	logging.Info("vitrine starting", "session", sess.ID, "api", cfg.API.BaseURL, "path", sess.Path, "plan", cfg.Access.Plan)

	program := tea.NewProgram(app, tea.WithAltScreen())

	// Quit cleanly on SIGTERM/SIGHUP so the session is saved.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	final, runErr := program.Run()

	if a, ok := final.(ui.App); ok {
		sess.Path, sess.Filter = a.Path(), a.Filter()
		if err := saver.Final(sess.Path, sess.Filter); err != nil {
			logging.Warn("Failed to save session", "error", err)
		}
	}
	sent, failed, dropped := fwd.Stats()
	events.For("main").Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindShutdown,
		Path:  sess.Path,
		Extra: map[string]any{"views_sent": sent, "views_failed": failed, "views_dropped": dropped},
	})
	logging.Info("vitrine exiting", "session", sess.ID, "views_sent", sent, "views_failed", failed, "views_dropped", dropped)

	if runErr != nil {
		return fmt.Errorf("run program: %w", runErr)
	}
	return nil
}

// resumeSession returns the most recent session when resuming, otherwise a
// fresh one on the root view.
func resumeSession(st *store.Store, resume bool) store.Session {
	fresh := store.Session{
		ID:     uuid.NewString(),
		Path:   "/",
		Filter: catalog.DefaultFilterKey(),
	}
	if !resume {
		return fresh
	}
	prev, err := st.LatestSession()
	if err != nil {
		logging.Warn("Failed to load last session", "error", err)
		return fresh
	}
	if prev == nil {
		return fresh
	}
	logging.Info("Resuming session", "session", prev.ID, "path", prev.Path, "filter", prev.Filter.String())
	return *prev
}

// sessionSaver persists location and filter changes off the event loop.
// Commands run concurrently, so each save carries a sequence number taken on
// the event loop and a save older than the last one written is dropped.
type sessionSaver struct {
	st        *store.Store
	sessionID string

	next    atomic.Uint64
	mu      sync.Mutex
	written uint64
}

func newSessionSaver(st *store.Store, sessionID string) *sessionSaver {
	return &sessionSaver{st: st, sessionID: sessionID}
}

// Cmd returns the command that saves path and key.
func (s *sessionSaver) Cmd(path string, key catalog.FilterKey) tea.Cmd {
	seq := s.next.Add(1)
	return func() tea.Msg {
		return ui.SessionSaved{Path: path, Filter: key, Err: s.save(seq, path, key)}
	}
}

func (s *sessionSaver) save(seq uint64, path string, key catalog.FilterKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.written {
		return nil
	}
	s.written = seq
	return s.st.SaveSession(store.Session{ID: s.sessionID, Path: path, Filter: key})
}

// Final writes the state at exit, superseding any queued save.
func (s *sessionSaver) Final(path string, key catalog.FilterKey) error {
	return s.save(s.next.Add(1), path, key)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
