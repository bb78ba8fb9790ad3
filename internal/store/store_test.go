package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abelbrown/vitrine/internal/catalog"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen(t *testing.T) {
	st := openTest(t)

	for _, table := range []string{"sessions", "viewed"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("%s table not created: %v", table, err)
		}
	}
}

func TestMemoryStoresAreIsolated(t *testing.T) {
	a := openTest(t)
	b := openTest(t)

	if err := a.SaveSession(Session{ID: "only-in-a"}); err != nil {
		t.Fatal(err)
	}
	got, err := b.GetSession("only-in-a")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("in-memory stores should not share data")
	}
}

func TestSaveAndGetSession(t *testing.T) {
	st := openTest(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := st.SaveSession(Session{
		ID:        "s1",
		Path:      "/item/login-modal",
		Filter:    catalog.NewFilterKey("iOS", " Dark Mode "),
		StartedAt: started,
		UpdatedAt: started,
	})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := st.GetSession("s1")
	if err != nil || got == nil {
		t.Fatalf("GetSession: %v %v", got, err)
	}
	if got.Path != "/item/login-modal" {
		t.Errorf("Path = %q", got.Path)
	}
	if !got.Filter.Equal(catalog.NewFilterKey("ios", "dark mode")) {
		t.Errorf("Filter = %+v", got.Filter)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v", got.StartedAt)
	}

	// Update keeps started_at.
	later := started.Add(time.Hour)
	if err := st.SaveSession(Session{ID: "s1", Path: "/", UpdatedAt: later, StartedAt: later}); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetSession("s1")
	if got.Path != "/" || !got.StartedAt.Equal(started) || !got.UpdatedAt.Equal(later) {
		t.Errorf("after update: %+v", got)
	}
	if !got.Filter.IsDefault() {
		t.Errorf("empty filter should load as default, got %+v", got.Filter)
	}
}

func TestGetSessionMissing(t *testing.T) {
	st := openTest(t)
	got, err := st.GetSession("nope")
	if err != nil || got != nil {
		t.Errorf("expected nil, nil; got %v, %v", got, err)
	}
	latest, err := st.LatestSession()
	if err != nil || latest != nil {
		t.Errorf("expected no latest session; got %v, %v", latest, err)
	}
	if err := st.SaveSession(Session{}); err == nil {
		t.Error("empty id should be rejected")
	}
}

func TestLatestSession(t *testing.T) {
	st := openTest(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		if err := st.SaveSession(Session{ID: id, UpdatedAt: base.Add(offsets[i])}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.LatestSession()
	if err != nil || got == nil {
		t.Fatalf("LatestSession: %v %v", got, err)
	}
	if got.ID != "newest" {
		t.Errorf("latest = %s", got.ID)
	}
}

func TestListSessionsAndViewedCounts(t *testing.T) {
	st := openTest(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := st.SaveSession(Session{ID: id, Filter: catalog.NewFilterKey("web", ""), UpdatedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}
	st.AddViewed("a", 1, 2)
	st.AddViewed("c", 3)

	got, err := st.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("sessions = %+v", got)
	}
	if got[0].Filter.Platform != "web" {
		t.Errorf("filter not loaded: %+v", got[0].Filter)
	}

	counts, err := st.ViewedCounts()
	if err != nil {
		t.Fatalf("ViewedCounts: %v", err)
	}
	if counts["a"] != 2 || counts["c"] != 1 || counts["b"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestAddViewed(t *testing.T) {
	st := openTest(t)

	if err := st.AddViewed("s1", 3, 1, 3); err != nil {
		t.Fatalf("AddViewed: %v", err)
	}
	if err := st.AddViewed("s1", 1, 7); err != nil {
		t.Fatalf("AddViewed: %v", err)
	}
	if err := st.AddViewed("s2", 9); err != nil {
		t.Fatal(err)
	}
	if err := st.AddViewed("s1"); err != nil {
		t.Errorf("empty AddViewed: %v", err)
	}

	ids, err := st.ViewedIDs("s1")
	if err != nil {
		t.Fatalf("ViewedIDs: %v", err)
	}
	want := []int64{3, 1, 7}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestPruneSessions(t *testing.T) {
	st := openTest(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SaveSession(Session{ID: "old", UpdatedAt: base})
	st.SaveSession(Session{ID: "new", UpdatedAt: base.Add(48 * time.Hour)})
	st.AddViewed("old", 1)
	st.AddViewed("new", 2)

	n, err := st.PruneSessions(base.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("PruneSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if ids, _ := st.ViewedIDs("old"); len(ids) != 0 {
		t.Errorf("viewed ids of pruned session remain: %v", ids)
	}
	if ids, _ := st.ViewedIDs("new"); len(ids) != 1 {
		t.Errorf("viewed ids of kept session = %v", ids)
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitrine.db")
	st, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	st.SaveSession(Session{ID: "s", Path: "/platform/web"})
	st.AddViewed("s", 5)
	st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	got, _ := st.GetSession("s")
	if got == nil || got.Path != "/platform/web" {
		t.Errorf("session not persisted: %+v", got)
	}
	if ids, _ := st.ViewedIDs("s"); len(ids) != 1 || ids[0] != 5 {
		t.Errorf("viewed not persisted: %v", ids)
	}
}

func TestConcurrentAddViewed(t *testing.T) {
	st := openTest(t)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := st.AddViewed("s", id); err != nil {
				t.Errorf("AddViewed: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()
	ids, err := st.ViewedIDs("s")
	if err != nil || len(ids) != 20 {
		t.Errorf("got %d ids, err %v", len(ids), err)
	}
}
