package history

import (
	"context"
	"testing"
	"time"

	"fmtd/internal/config"
)

func openTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.StateFile = cfg.Paths.LogDir + "/server.json"
	cfg.Paths.LockFile = cfg.Paths.LogDir + "/fmtd.lock"
	cfg.History.Keep = keep

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t, 10)
	ctx := context.Background()

	rec := Record{
		InstanceID: "abc123",
		FileName:   "/src/main.code",
		Status:     "Formatted",
		Duration:   42 * time.Millisecond,
	}
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	records, err := store.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if got.FileName != rec.FileName || got.Status != rec.Status || got.InstanceID != rec.InstanceID {
		t.Errorf("record mismatch: %+v", got)
	}
	if got.Duration != rec.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, rec.Duration)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
	if got.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", got.ErrorMessage)
	}
}

func TestRecentOrdering(t *testing.T) {
	store := openTestStore(t, 10)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if err := store.Record(ctx, Record{FileName: name, Status: "Formatted"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].FileName != "third" || records[1].FileName != "second" {
		t.Errorf("unexpected order: %q, %q", records[0].FileName, records[1].FileName)
	}
}

func TestRetentionPrunes(t *testing.T) {
	store := openTestStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if err := store.Record(ctx, Record{FileName: "f", Status: "Formatted"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records after pruning, want 3", len(records))
	}
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t, 10)
	ctx := context.Background()

	seed := []Record{
		{FileName: "a", Status: "Formatted"},
		{FileName: "b", Status: "Formatted"},
		{FileName: "c", Status: "Failed", ErrorMessage: "parse error"},
	}
	for _, rec := range seed {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Total != 3 {
		t.Errorf("Total = %d, want 3", summary.Total)
	}
	if summary.ByStatus["Formatted"] != 2 || summary.ByStatus["Failed"] != 1 {
		t.Errorf("ByStatus = %v", summary.ByStatus)
	}
	if summary.LastAt.IsZero() {
		t.Error("LastAt not populated")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	store := openTestStore(t, 10)
	summary, err := store.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("Total = %d, want 0", summary.Total)
	}
	if !summary.LastAt.IsZero() {
		t.Errorf("LastAt = %v, want zero", summary.LastAt)
	}
}
