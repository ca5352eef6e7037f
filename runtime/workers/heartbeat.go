package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsProvider supplies engine counters for the heartbeat log line.
type StatsProvider func() map[string]any

// HeartbeatWorker periodically logs the process health (RAM, CPU, OS status)
// together with the engine counters. Purely observational.
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    StatsProvider
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, stats StatsProvider) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, stats: stats}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			attrs := []any{
				"rss_mb", rss / (1024 * 1024),
				"cpu_percent", cpu,
				"status", status,
			}
			if w.stats != nil {
				for k, v := range w.stats() {
					attrs = append(attrs, k, v)
				}
			}
			w.log.Info("Heartbeat", attrs...)
		}
	}
}

// selfStats retrieves technical metrics (memory, CPU, OS status) for the process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpu, status, nil
}
