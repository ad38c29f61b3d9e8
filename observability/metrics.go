// Package observability aggregates request counters and process telemetry
// for the stats endpoint and the periodic reporter.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"

	"beruang/contract"
	"beruang/domain"
)

// Stats is the point-in-time view served on the stats endpoint.
type Stats struct {
	UptimeSeconds   int64   `json:"uptime_seconds"`
	Requests        uint64  `json:"requests"`
	LocalServed     uint64  `json:"local_served"`
	RemoteServed    uint64  `json:"remote_served"`
	PartialServed   uint64  `json:"partial_served"`
	StreamErrors    uint64  `json:"stream_errors"`
	TokensDelivered uint64  `json:"tokens_delivered"`
	AllocMemMb      uint64  `json:"alloc_mem_mb"`
	NumGC           uint32  `json:"num_gc"`
	ProcessRSSMb    uint64  `json:"process_rss_mb"`
	ProcessCPU      float64 `json:"process_cpu_percent"`
	ProcessStatus   string  `json:"process_status"`
}

// Manager keeps lock-free counters; Snapshot folds in runtime and OS
// process telemetry on demand. Safe for concurrent use.
type Manager struct {
	log       *slog.Logger
	startedAt time.Time
	proc      *process.Process

	requests        atomic.Uint64
	localServed     atomic.Uint64
	remoteServed    atomic.Uint64
	partialServed   atomic.Uint64
	streamErrors    atomic.Uint64
	tokensDelivered atomic.Uint64
}

func NewManager(log *slog.Logger) *Manager {
	// A process handle failure only disables OS telemetry, never metrics.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process telemetry unavailable", "err", err)
		proc = nil
	}
	return &Manager{
		log:       log,
		startedAt: time.Now(),
		proc:      proc,
	}
}

func (m *Manager) RecordRequest() {
	m.requests.Add(1)
}

// ObserveEvent classifies one outgoing stream frame into the counters.
func (m *Manager) ObserveEvent(event domain.StreamEvent) {
	switch event.Type {
	case domain.EventToken:
		m.tokensDelivered.Add(1)
	case domain.EventError:
		m.streamErrors.Add(1)
	case domain.EventDone:
		if event.Source == domain.RouteLocal.String() {
			m.localServed.Add(1)
		} else {
			m.remoteServed.Add(1)
		}
		if event.Partial {
			m.partialServed.Add(1)
		}
	}
}

func (m *Manager) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		UptimeSeconds:   int64(time.Since(m.startedAt).Seconds()),
		Requests:        m.requests.Load(),
		LocalServed:     m.localServed.Load(),
		RemoteServed:    m.remoteServed.Load(),
		PartialServed:   m.partialServed.Load(),
		StreamErrors:    m.streamErrors.Load(),
		TokensDelivered: m.tokensDelivered.Load(),
		AllocMemMb:      mem.Alloc / 1024 / 1024,
		NumGC:           mem.NumGC,
	}

	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.ProcessRSSMb = memInfo.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.ProcessCPU = cpu
		}
		if status, err := m.proc.Status(); err == nil {
			stats.ProcessStatus = status
		}
	}
	return stats
}

// WrapSink decorates a sink so every frame that actually reaches the
// client is counted. Counting happens after delivery succeeds.
func (m *Manager) WrapSink(sink contract.EventSink) contract.EventSink {
	return &observedSink{inner: sink, metrics: m}
}

type observedSink struct {
	inner   contract.EventSink
	metrics *Manager
}

func (s *observedSink) Consume(ctx context.Context, event domain.StreamEvent) error {
	if err := s.inner.Consume(ctx, event); err != nil {
		return err
	}
	s.metrics.ObserveEvent(event)
	return nil
}
