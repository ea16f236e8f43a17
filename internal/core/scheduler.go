package core

// scheduler.go provides background maintenance for dashboard sessions.
//
// The sweeper runs immediately on start and then periodically, deleting
// sessions that have been idle longer than the configured TTL. It is
// context-aware for graceful shutdown and logs failures without stopping.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/roledash/internal/state"
)

// SweepConfig holds configuration for the session sweeper.
// Zero values are replaced with defaults.
type SweepConfig struct {
	TTL      time.Duration // Idle time before a session is purged (default: 12h)
	Interval time.Duration // How often to run (default: 15m)
}

const (
	DefaultSessionTTL    = 12 * time.Hour
	DefaultSweepInterval = 15 * time.Minute
)

func (c SweepConfig) withDefaults() SweepConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultSessionTTL
	}
	if c.Interval <= 0 {
		c.Interval = DefaultSweepInterval
	}
	return c
}

// StartSessionSweeper purges expired sessions from store until ctx is
// cancelled. It blocks; run it in its own goroutine.
func StartSessionSweeper(ctx context.Context, store state.Store, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session sweeper started",
		"ttl", cfg.TTL.String(),
		"interval", cfg.Interval.String(),
	)

	// Run immediately on startup
	sweepSessions(ctx, store, cfg.TTL)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			sweepSessions(ctx, store, cfg.TTL)
		}
	}
}

// sweepSessions performs one purge cycle.
func sweepSessions(ctx context.Context, store state.Store, ttl time.Duration) {
	start := time.Now()
	purged, err := store.PurgeExpired(ctx, start.Add(-ttl))
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("session sweep failed", "error", err)
		}
		return
	}
	if purged > 0 {
		slog.Info("purged expired sessions",
			"sessions_purged", purged,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
