package session

import (
	"context"
	"log/slog"
	"time"
)

// StartTTLWorker runs a background goroutine that periodically closes
// sessions idle for longer than ttl.
func StartTTLWorker(ctx context.Context, mgr *Manager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case now := <-ticker.C:
				if swept := mgr.Sweep(now, ttl); swept > 0 {
					slog.Info("TTL worker closed idle sessions", "count", swept, "remaining", mgr.Count())
				}
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
