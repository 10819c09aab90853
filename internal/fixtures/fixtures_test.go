package fixtures

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLatestOnEmptyStoreReturnsNil(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.Latest("never-recorded")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot, got %+v", snap)
	}
}

func TestRecordThenLatestRoundTrips(t *testing.T) {
	s := openTestStore(t)

	recorded, err := s.Record("run-1", "main", "dump-text-v1")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	latest, err := s.Latest("main")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil {
		t.Fatalf("expected a snapshot, got nil")
	}
	if latest.ID != recorded.ID || latest.Dump != "dump-text-v1" || latest.RunID != "run-1" {
		t.Fatalf("expected latest to match recorded snapshot, got %+v", latest)
	}
}

func TestLatestPicksMostRecentRecording(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Record("run-1", "main", "dump-v1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := s.Record("run-2", "main", "dump-v2"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	latest, err := s.Latest("main")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Dump != "dump-v2" {
		t.Fatalf("expected the second recording to win, got %q", latest.Dump)
	}
}

func TestDiffReportsMismatchAgainstPriorSnapshot(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Record("run-1", "main", "dump-v1"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	matches, prior, err := s.Diff("main", "dump-v2")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if matches {
		t.Fatalf("expected a mismatch between dump-v1 and dump-v2")
	}
	if prior == nil || prior.Dump != "dump-v1" {
		t.Fatalf("expected Diff to return the prior snapshot, got %+v", prior)
	}
}

func TestDiffWithNoPriorSnapshotReportsNoMatch(t *testing.T) {
	s := openTestStore(t)

	matches, prior, err := s.Diff("unseen", "dump-v1")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if matches {
		t.Fatalf("expected no match when there is no prior snapshot")
	}
	if prior != nil {
		t.Fatalf("expected no prior snapshot, got %+v", prior)
	}
}

func TestDiffMatchesIdenticalDump(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Record("run-1", "main", "same-dump"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	matches, prior, err := s.Diff("main", "same-dump")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !matches {
		t.Fatalf("expected identical dumps to match")
	}
	if prior == nil {
		t.Fatalf("expected Diff to still return the prior snapshot")
	}
}
