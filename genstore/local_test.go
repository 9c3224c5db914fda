package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalSnapshotMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, ok, err := s.Snapshot(ctx, "Cache:Cache:version")
	if err != nil {
		t.Fatal(err)
	}
	if ok || g != 0 {
		t.Fatalf("missing key: got gen=%d ok=%v", g, ok)
	}
}

func TestLocalSeedNeverLowers(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if g, _ := s.Seed(ctx, "v", 1, 0); g != 1 {
		t.Fatalf("first seed: got %d want 1", g)
	}
	if _, err := s.Bump(ctx, "v", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump(ctx, "v", 0); err != nil {
		t.Fatal(err)
	}
	// stored=3; seeding 1 or 3 is a no-op
	for _, seed := range []uint64{1, 3} {
		g, err := s.Seed(ctx, "v", seed, 0)
		if err != nil {
			t.Fatal(err)
		}
		if g != 3 {
			t.Fatalf("seed(%d) changed generation: got %d want 3", seed, g)
		}
	}
	// a higher seed raises it
	if g, _ := s.Seed(ctx, "v", 10, 0); g != 10 {
		t.Fatalf("seed(10): got %d want 10", g)
	}
}

func TestLocalBumpFromMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, err := s.Bump(ctx, "fresh", 0)
	if err != nil {
		t.Fatal(err)
	}
	if g != 1 {
		t.Fatalf("bump on missing: got %d want 1", g)
	}
}

func TestLocalExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Seed(ctx, "short", 5, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)

	if _, ok, _ := s.Snapshot(ctx, "short"); ok {
		t.Fatalf("expired generation still visible")
	}
	s.Sweep()
	s.mu.Lock()
	n := len(s.gens)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("sweep left %d entries", n)
	}
}

func TestLocalCloseIdempotent(t *testing.T) {
	s := NewLocalGenStore(time.Millisecond)
	_ = s.Close(context.Background())
	_ = s.Close(context.Background())
}
