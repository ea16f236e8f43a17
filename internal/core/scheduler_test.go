package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JonMunkholm/roledash/internal/state"
)

type countingStore struct {
	state.Store
	sweeps atomic.Int32
	cutoff atomic.Int64
}

func (c *countingStore) PurgeExpired(_ context.Context, olderThan time.Time) (int64, error) {
	c.sweeps.Add(1)
	c.cutoff.Store(olderThan.UnixNano())
	return 0, nil
}

func TestStartSessionSweeper_RunsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &countingStore{Store: state.NewMemoryStore()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartSessionSweeper(ctx, store, SweepConfig{TTL: time.Hour, Interval: 5 * time.Millisecond})
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeps = %d, want at least 2", store.sweeps.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}

	cutoff := time.Unix(0, store.cutoff.Load())
	if age := time.Since(cutoff); age < time.Hour {
		t.Errorf("cutoff age = %v, want at least the TTL", age)
	}
}

func TestSweepSessions_PurgesExpired(t *testing.T) {
	store := state.NewMemoryStore()
	ctx := context.Background()
	if err := store.Put(ctx, state.NewSessionID(), state.State{Role: "Admin"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// A negative TTL puts the cutoff in the future, so everything is stale.
	sweepSessions(ctx, store, -time.Minute)

	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestSweepConfig_Defaults(t *testing.T) {
	cfg := SweepConfig{}.withDefaults()
	if cfg.TTL != DefaultSessionTTL {
		t.Errorf("TTL = %v, want %v", cfg.TTL, DefaultSessionTTL)
	}
	if cfg.Interval != DefaultSweepInterval {
		t.Errorf("Interval = %v, want %v", cfg.Interval, DefaultSweepInterval)
	}
}
