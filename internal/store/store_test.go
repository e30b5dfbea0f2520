package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulpprobe/pulpprobe/internal/config"
	"github.com/pulpprobe/pulpprobe/internal/tasks"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	st := openTempStore(t)
	ctx := context.Background()

	outcomes := []tasks.Outcome{
		{Ref: "aaa", State: "finished", Failed: false, Duration: 120 * time.Millisecond},
		{Ref: "bbb", State: "error", Failed: true, Duration: 40 * time.Millisecond, Detail: "sync failed"},
		{Ref: "ccc", State: "skipped", Failed: false},
	}
	for _, o := range outcomes {
		if err := st.Record(ctx, o); err != nil {
			t.Fatalf("Record(%s): %v", o.Ref, err)
		}
	}

	records, err := st.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Newest first.
	if records[0].Ref != "ccc" || records[2].Ref != "aaa" {
		t.Fatalf("unexpected order: %v, %v, %v", records[0].Ref, records[1].Ref, records[2].Ref)
	}
	if !records[1].Failed || records[1].Detail != "sync failed" {
		t.Fatalf("failure detail not persisted: %+v", records[1])
	}
	if records[2].DurationMS != 120 {
		t.Fatalf("expected duration 120ms, got %d", records[2].DurationMS)
	}
	if _, err := time.Parse(time.RFC3339, records[0].RanAt); err != nil {
		t.Fatalf("ran_at is not RFC3339: %q", records[0].RanAt)
	}
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	st := openTempStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := st.Record(ctx, tasks.Outcome{Ref: "t", State: "finished"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	records, err := st.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records with limit, got %d", len(records))
	}
}

func TestSQLiteStore_SchemaIdempotent(t *testing.T) {
	st := openTempStore(t)
	if err := st.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema second call: %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		st, err := FromConfig(config.StoreConfig{Disabled: true})
		if err != nil {
			t.Fatalf("FromConfig: %v", err)
		}
		if st != nil {
			t.Fatalf("expected nil store when disabled")
		}
	})
	t.Run("sqlite path", func(t *testing.T) {
		st, err := FromConfig(config.StoreConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "p.db")})
		if err != nil {
			t.Fatalf("FromConfig: %v", err)
		}
		defer func() { _ = st.Close() }()
		if st == nil {
			t.Fatalf("expected a store")
		}
	})
	t.Run("postgres without dsn", func(t *testing.T) {
		if _, err := FromConfig(config.StoreConfig{Type: "postgres"}); err == nil {
			t.Fatalf("expected error for postgres without dsn")
		}
	})
	t.Run("unknown type", func(t *testing.T) {
		if _, err := FromConfig(config.StoreConfig{Type: "mongodb"}); err == nil {
			t.Fatalf("expected error for unknown type")
		}
	})
}

func TestNilStore_RecordIsNoop(t *testing.T) {
	var st *Store
	if err := st.Record(context.Background(), tasks.Outcome{Ref: "x"}); err != nil {
		t.Fatalf("nil store Record must be a no-op: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("nil store Close must be a no-op: %v", err)
	}
}
