package history

import (
	"path/filepath"
	"testing"

	"citecheck/internal/behavior"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)

	if _, err := s.Record("git-a-1", "git", "repo@main:a.txt", true, behavior.Result{Valid: true}); err != nil {
		t.Fatal(err)
	}
	failing := behavior.Result{Level: behavior.LevelError, ShouldFail: true, ShouldReport: true}
	rec, err := s.Record("http-b-2", "http", "https://example.com#x", false, failing)
	if err != nil {
		t.Fatal(err)
	}
	if rec.RunID == "" {
		t.Error("expected a run id")
	}

	entries, err := s.Recent("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SourceID != "http-b-2" {
		t.Errorf("expected newest first, got %s", entries[0].SourceID)
	}
	if entries[0].Result != failing {
		t.Errorf("result = %+v, want %+v", entries[0].Result, failing)
	}
	if !entries[1].Result.Valid || !entries[1].Same {
		t.Errorf("expected valid entry, got %+v", entries[1])
	}
}

func TestRecent_FilterAndLimit(t *testing.T) {
	s := openStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.Record("a", "mock", "a", true, behavior.Result{Valid: true}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Record("b", "mock", "b", true, behavior.Result{Valid: true}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent("a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.SourceID != "a" {
			t.Errorf("unexpected source %s", e.SourceID)
		}
	}
}

func TestStats(t *testing.T) {
	s := openStore(t)

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChecks != 0 || st.Failures != 0 {
		t.Errorf("expected empty stats, got %+v", st)
	}

	s.Record("a", "mock", "a", false, behavior.Result{Level: behavior.LevelError, ShouldFail: true, ShouldReport: true})
	s.Record("a", "mock", "a", false, behavior.Result{Level: behavior.LevelWarn, ShouldReport: true})

	st, err = s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChecks != 2 || st.Failures != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}
