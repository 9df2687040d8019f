package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_LoadMissingFileReturnsFreshState(t *testing.T) {
	root := t.TempDir()
	st := NewStore()

	s, err := st.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Confidence != DefaultConfidence {
		t.Errorf("expected a fresh state at DefaultConfidence, got %d", s.Confidence)
	}
	if s.EditCounts == nil {
		t.Error("expected EditCounts to be initialized, not nil")
	}
}

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	root := t.TempDir()
	st := NewStore()

	s := New(root)
	s.Confidence = 42
	s.TurnCount = 7
	s.TrackFileEdit("main.go")
	s.ConfidenceHistory = []int{1, -2, 3}

	if err := st.Save(root, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := st.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Confidence != 42 || loaded.TurnCount != 7 {
		t.Errorf("expected round-tripped confidence=42 turn_count=7, got %+v", loaded)
	}
	if loaded.EditCounts["main.go"] != 1 {
		t.Errorf("expected edit count to round-trip, got %v", loaded.EditCounts)
	}
	if len(loaded.ConfidenceHistory) != 3 {
		t.Errorf("expected ConfidenceHistory to round-trip, got %v", loaded.ConfidenceHistory)
	}
}

func TestStore_LoadCorruptFileReturnsErrStateCorrupt(t *testing.T) {
	root := t.TempDir()
	path := statePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := NewStore()
	_, err := st.Load(root)
	if !errors.Is(err, ErrStateCorrupt) {
		t.Fatalf("expected ErrStateCorrupt, got %v", err)
	}
}

func TestStore_LockThenUnlockAllowsASecondSequentialLock(t *testing.T) {
	root := t.TempDir()
	st := NewStore()

	release, err := st.Lock(root)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	release()

	release2, err := st.Lock(root)
	if err != nil {
		t.Fatalf("second sequential Lock: %v", err)
	}
	release2()
}

func TestUpgrade_InitializesNilMapsFromAnOlderSchema(t *testing.T) {
	raw, err := decodeRaw([]byte(`{"schema_version": 0, "confidence": 55}`))
	if err != nil {
		t.Fatalf("decodeRaw: %v", err)
	}

	s := upgrade(raw)
	if s.Confidence != 55 {
		t.Errorf("expected confidence to survive the upgrade, got %d", s.Confidence)
	}
	if s.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected upgrade to stamp the current schema version, got %d", s.SchemaVersion)
	}
	if s.EditCounts == nil || s.ToolDebt == nil || s.ReducerFirings == nil {
		t.Error("expected every map field to be initialized after upgrading an older schema")
	}
	if s.ConfidenceHistory != nil {
		t.Errorf("expected ConfidenceHistory to stay nil (append is nil-safe), got %v", s.ConfidenceHistory)
	}
}
