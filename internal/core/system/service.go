// Package system reports service and host health.
package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/pkg/version"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HostReader reads host statistics. Tests replace it.
type HostReader func(ctx context.Context, dataPath string) (*HostStats, error)

type Service struct {
	db       Pinger
	dataPath string
	readHost HostReader
	metrics  metrics.Collector
	logger   *logrus.Logger
	started  time.Time
}

// NewService creates a health service. dataPath is the database file, whose
// filesystem is reported as the disk.
func NewService(db Pinger, dataPath string, collector metrics.Collector, logger *logrus.Logger) *Service {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{
		db:       db,
		dataPath: dataPath,
		readHost: ReadHost,
		metrics:  collector,
		logger:   logger,
		started:  time.Now(),
	}
}

// Health pings the database and samples the host. A database failure makes
// the service unhealthy; a host sampling failure only degrades it.
func (s *Service) Health(ctx context.Context) *Health {
	h := &Health{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Build:     version.Get(),
	}

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		h.Status = StatusUnhealthy
		h.Database = ComponentHealth{Status: StatusUnhealthy, Error: err.Error()}
	} else {
		h.Database = ComponentHealth{Status: StatusHealthy}
	}
	h.Database.Latency = time.Since(start).String()

	stats, err := s.readHost(ctx, s.dataPath)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read host stats")
		h.HostError = err.Error()
		if h.Status == StatusHealthy {
			h.Status = StatusDegraded
		}
		return h
	}
	h.Host = stats
	s.metrics.RecordSystemResource(stats.CPU.Usage, stats.Memory.UsedPercent, stats.Disk.UsedPercent)
	return h
}

// Monitor samples host resources into the metrics collector until ctx ends
func (s *Service) Monitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats, err := s.readHost(ctx, s.dataPath)
			if err != nil {
				s.logger.WithError(err).Debug("Failed to sample host resources")
				continue
			}
			s.metrics.RecordSystemResource(stats.CPU.Usage, stats.Memory.UsedPercent, stats.Disk.UsedPercent)
		}
	}
}

// ReadHost samples the host with gopsutil
func ReadHost(ctx context.Context, dataPath string) (*HostStats, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}

	// interval 0 compares against the previous call instead of blocking
	percent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count CPUs: %w", err)
	}

	stats := &HostStats{
		Hostname: info.Hostname,
		OS:       info.OS,
		Platform: info.Platform,
		CPU:      CPUInfo{Cores: cores, LoadAverage: []float64{}},
	}
	if len(percent) > 0 {
		stats.CPU.Usage = percent[0]
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.CPU.LoadAverage = []float64{avg.Load1, avg.Load5, avg.Load15}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}
	stats.Memory = MemoryInfo{Total: vm.Total, Available: vm.Available, UsedPercent: vm.UsedPercent}

	dir := "/"
	if dataPath != "" && dataPath != ":memory:" {
		dir = filepath.Dir(dataPath)
	}
	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", err)
	}
	stats.Disk = DiskInfo{Path: usage.Path, Total: usage.Total, Free: usage.Free, UsedPercent: usage.UsedPercent}

	return stats, nil
}
