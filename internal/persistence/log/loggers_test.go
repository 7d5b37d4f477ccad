package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dwarfhold.dev/internal/sim/world"
)

func TestTickLogger_WriteRead(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := uint64(1); i <= 3; i++ {
		if err := l.WriteTick(world.TickLogEntry{Tick: i, Alive: 2, Digest: "d"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(filepath.Join(dir, "events"), "events")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []uint64
	err = ReadJSONL(files[0], func(e world.TickLogEntry) error {
		got = append(got, e.Tick)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("ticks=%v", got)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "audit")
	now := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(world.AuditEntry{Tick: 1, Action: "DIG"}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(world.AuditEntry{Tick: 2, Action: "CHANNEL"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, "audit")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"audit-2026-01-02-03.jsonl.zst", "audit-2026-01-02-04.jsonl.zst"}
	if len(files) != 2 || filepath.Base(files[0]) != want[0] || filepath.Base(files[1]) != want[1] {
		t.Fatalf("files=%v", files)
	}
	var actions []string
	for _, f := range files {
		_ = ReadJSONL(f, func(e world.AuditEntry) error {
			actions = append(actions, e.Action)
			return nil
		})
	}
	if len(actions) != 2 || actions[0] != "DIG" || actions[1] != "CHANNEL" {
		t.Fatalf("actions=%v", actions)
	}
}

func TestListFiles_IgnoresOthers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"events-2026-01-01-00.jsonl.zst", "audit-2026-01-01-00.jsonl.zst", "events.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListFiles(dir, "events")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
}
