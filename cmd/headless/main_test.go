package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"dwarfhold.dev/internal/sim/tuning"
)

func smallTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.Map = tuning.Map{Width: 32, Height: 32, Depth: 20, SurfaceZ: 16}
	return t
}

func TestSimulate_SameSeedSameDigest(t *testing.T) {
	ctx := context.Background()
	opt := options{Seed: 7, Ticks: 120, Tuning: smallTuning()}
	a, err := simulate(ctx, opt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := simulate(ctx, opt)
	if err != nil {
		t.Fatal(err)
	}
	if a.Digest != b.Digest || a.Tick != 120 {
		t.Fatalf("runs diverged: %+v vs %+v", a, b)
	}
	if a.Alive+a.Dead != 10 {
		t.Fatalf("population=%d want 10", a.Alive+a.Dead)
	}

	opt.Seed = 8
	c, err := simulate(ctx, opt)
	if err != nil {
		t.Fatal(err)
	}
	if c.Digest == a.Digest {
		t.Fatalf("different seeds produced the same digest")
	}
}

func TestVerify_AgainstRecordedLog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tune := smallTuning()
	if _, err := simulate(ctx, options{Seed: 3, Ticks: 60, Tuning: tune, DataDir: dir}); err != nil {
		t.Fatal(err)
	}

	n, err := verify(ctx, filepath.Join(dir, "events"), 3, tune, nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if n != 60 {
		t.Fatalf("verified=%d want 60", n)
	}

	_, err = verify(ctx, filepath.Join(dir, "events"), 4, tune, nil)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("wrong seed should mismatch, err=%v", err)
	}
}

func TestVerify_EmptyDir(t *testing.T) {
	if _, err := verify(context.Background(), t.TempDir(), 1, smallTuning(), nil); err == nil {
		t.Fatalf("expected error for a dir without logs")
	}
}
