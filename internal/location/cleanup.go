package location

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically expires stale anonymous location markers.
type Cleaner struct {
	service  LocationService
	interval time.Duration
	log      *slog.Logger
}

func NewCleaner(service LocationService, interval time.Duration, log *slog.Logger) *Cleaner {
	return &Cleaner{service: service, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	removed, err := c.service.ExpireStale(ctx)
	if err != nil {
		c.log.Error("location cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		c.log.Info("expired stale locations", "count", removed)
	}
}
