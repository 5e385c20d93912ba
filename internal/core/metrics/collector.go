package metrics

import (
	"time"
)

// Collector records planner metrics
type Collector interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
	RecordWebSocketConnection(action string)
	RecordWebSocketMessage(messageType, direction string)
	RecordStoreOperation(collection, operation string, success bool, duration time.Duration)
	RecordViewComputation(view string, duration time.Duration)
	RecordPublish(publisher string, success bool)
	RecordBackup(success bool, size int64)
	RecordSystemResource(cpu, memory, disk float64)
}

// Config contains configuration for metrics collection
type Config struct {
	Enabled bool
	Prefix  string
}

// NoopCollector discards every measurement
type NoopCollector struct{}

func (NoopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NoopCollector) RecordWebSocketConnection(string) {}
func (NoopCollector) RecordWebSocketMessage(string, string) {}
func (NoopCollector) RecordStoreOperation(string, string, bool, time.Duration) {}
func (NoopCollector) RecordViewComputation(string, time.Duration) {}
func (NoopCollector) RecordPublish(string, bool) {}
func (NoopCollector) RecordBackup(bool, int64) {}
func (NoopCollector) RecordSystemResource(float64, float64, float64) {}

// Timer measures the duration of one operation
type Timer struct {
	start time.Time
}

// StartTimer starts a new Timer
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
