package observability

import (
	"context"
	"log/slog"
	"time"
)

// Reporter periodically logs a metrics snapshot so operators can follow a
// deployment from logs alone.
type Reporter struct {
	log      *slog.Logger
	metrics  *Manager
	interval time.Duration
}

func NewReporter(log *slog.Logger, metrics *Manager, interval time.Duration) *Reporter {
	return &Reporter{
		log:      log,
		metrics:  metrics,
		interval: interval,
	}
}

func (r *Reporter) Run(ctx context.Context) error {
	r.log.Info("Starting metrics reporter", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := r.metrics.Snapshot()
			r.log.Info("Service stats",
				"requests", stats.Requests,
				"local", stats.LocalServed,
				"remote", stats.RemoteServed,
				"partial", stats.PartialServed,
				"stream_errors", stats.StreamErrors,
				"tokens", stats.TokensDelivered,
				"alloc_mb", stats.AllocMemMb,
				"rss_mb", stats.ProcessRSSMb,
				"cpu_percent", stats.ProcessCPU)
		}
	}
}
