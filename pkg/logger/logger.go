package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestMetrics aggregates successful requests of one route between flushes
type RequestMetrics struct {
	Count      int           `json:"count"`
	TotalTime  time.Duration `json:"total_time"`
	MinLatency time.Duration `json:"min_latency"`
	MaxLatency time.Duration `json:"max_latency"`
	AvgLatency time.Duration `json:"avg_latency"`
}

// BatchLogger wraps logrus.Logger and folds 2xx request logs into periodic summaries
type BatchLogger struct {
	*logrus.Logger
	metrics    map[string]*RequestMetrics
	batchCount int
	mutex      sync.Mutex
	batchSize  int
}

// Options configures a BatchLogger
type Options struct {
	Level     string
	Format    string
	Output    io.Writer
	BatchSize int
}

// New creates a JSON logger with the level taken from LOG_LEVEL
func New() *BatchLogger {
	return NewWithOptions(Options{Level: os.Getenv("LOG_LEVEL"), Format: "json"})
}

// NewWithOptions creates a logger from explicit options
func NewWithOptions(opts Options) *BatchLogger {
	log := logrus.New()

	if strings.EqualFold(opts.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "time",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		})
	}

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stdout)
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	return &BatchLogger{
		Logger:    log,
		metrics:   make(map[string]*RequestMetrics),
		batchSize: opts.BatchSize,
	}
}

// LogRequest logs a request; 2xx responses are batched
func (bl *BatchLogger) LogRequest(method, route string, statusCode int, latency time.Duration, fields logrus.Fields) {
	if statusCode >= 200 && statusCode < 300 {
		bl.batchSuccess(method, route, latency)
		return
	}

	entry := bl.WithFields(fields)
	switch {
	case statusCode >= 500:
		entry.Errorf("%s %s - Status: %d, Latency: %v", method, route, statusCode, latency)
	case statusCode >= 400:
		entry.Warnf("%s %s - Status: %d, Latency: %v", method, route, statusCode, latency)
	default:
		entry.Infof("%s %s - Status: %d, Latency: %v", method, route, statusCode, latency)
	}
}

func (bl *BatchLogger) batchSuccess(method, route string, latency time.Duration) {
	bl.mutex.Lock()
	defer bl.mutex.Unlock()

	key := method + " " + route
	m := bl.metrics[key]
	if m == nil {
		m = &RequestMetrics{MinLatency: latency, MaxLatency: latency}
		bl.metrics[key] = m
	}

	m.Count++
	m.TotalTime += latency
	if latency < m.MinLatency {
		m.MinLatency = latency
	}
	if latency > m.MaxLatency {
		m.MaxLatency = latency
	}
	m.AvgLatency = m.TotalTime / time.Duration(m.Count)

	bl.batchCount++
	if bl.batchCount >= bl.batchSize {
		bl.flushBatch()
	}
}

// flushBatch must be called with the mutex held
func (bl *BatchLogger) flushBatch() {
	if bl.batchCount == 0 {
		return
	}

	bl.WithFields(logrus.Fields{
		"batch_summary":  true,
		"total_requests": bl.batchCount,
		"routes":         bl.metrics,
	}).Info("Request batch summary")

	bl.metrics = make(map[string]*RequestMetrics)
	bl.batchCount = 0
}

// FlushPending forces a flush of any pending batch data
func (bl *BatchLogger) FlushPending() {
	bl.mutex.Lock()
	defer bl.mutex.Unlock()
	bl.flushBatch()
}

// Pending returns the number of batched requests not yet flushed
func (bl *BatchLogger) Pending() int {
	bl.mutex.Lock()
	defer bl.mutex.Unlock()
	return bl.batchCount
}
