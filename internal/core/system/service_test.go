package system

import (
	"context"
	"io"
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type resourceRecorder struct {
	metrics.NoopCollector
	mock.Mock
}

func (r *resourceRecorder) RecordSystemResource(cpu, mem, disk float64) {
	r.Called(cpu, mem, disk)
}

func newService(db Pinger, host HostReader, collector metrics.Collector) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewService(db, "/var/lib/planner/planner.db", collector, log)
	s.readHost = host
	return s
}

func fixedHost(_ context.Context, path string) (*HostStats, error) {
	return &HostStats{
		Hostname: "planner",
		CPU:      CPUInfo{Usage: 12, Cores: 4},
		Memory:   MemoryInfo{UsedPercent: 40},
		Disk:     DiskInfo{Path: path, UsedPercent: 70},
	}, nil
}

func TestHealth(t *testing.T) {
	rec := &resourceRecorder{}
	rec.On("RecordSystemResource", 12.0, 40.0, 70.0).Once()

	h := newService(pinger{}, fixedHost, rec).Health(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Equal(t, StatusHealthy, h.Database.Status)
	require.NotNil(t, h.Host)
	assert.Equal(t, "planner", h.Host.Hostname)
	rec.AssertExpectations(t)
}

func TestHealthDatabaseDown(t *testing.T) {
	h := newService(pinger{err: assert.AnError}, fixedHost, nil).Health(context.Background())
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, assert.AnError.Error(), h.Database.Error)
}

func TestHealthHostFailureDegrades(t *testing.T) {
	failing := func(context.Context, string) (*HostStats, error) { return nil, assert.AnError }

	h := newService(pinger{}, failing, nil).Health(context.Background())
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Nil(t, h.Host)
	assert.NotEmpty(t, h.HostError)
}
