package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements Collector using Prometheus metrics
type PrometheusCollector struct {
	registry *prometheus.Registry

	// HTTP Metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// WebSocket Metrics
	websocketConnections prometheus.Gauge
	websocketMessages    *prometheus.CounterVec

	// Store Metrics
	storeOperations        *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec

	// Derived views
	viewDuration *prometheus.HistogramVec

	publishTotal *prometheus.CounterVec

	backupsTotal    *prometheus.CounterVec
	backupSizeBytes prometheus.Gauge

	// System Metrics
	systemCPU    prometheus.Gauge
	systemMemory prometheus.Gauge
	systemDisk   prometheus.Gauge
}

// NewPrometheusCollector creates a collector on its own registry
func NewPrometheusCollector(config *Config) *PrometheusCollector {
	if config == nil {
		config = &Config{Enabled: true, Prefix: "planner"}
	}
	prefix := config.Prefix
	if prefix == "" {
		prefix = "planner"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &PrometheusCollector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		websocketConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_websocket_connections",
			Help: "Number of active WebSocket connections",
		}),

		websocketMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		}, []string{"type", "direction"}),

		storeOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_store_operations_total",
			Help: "Total number of record store operations",
		}, []string{"collection", "operation", "success"}),

		storeOperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_store_operation_duration_seconds",
			Help:    "Record store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"collection", "operation"}),

		viewDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_view_duration_seconds",
			Help:    "Derived view computation time in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"view"}),

		publishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_change_events_published_total",
			Help: "Change events delivered to publishers",
		}, []string{"publisher", "success"}),

		backupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_backups_total",
			Help: "Backups written",
		}, []string{"success"}),

		backupSizeBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_backup_size_bytes",
			Help: "Size of the last written backup",
		}),

		systemCPU: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_system_cpu_percent",
			Help: "Host CPU usage percentage",
		}),
		systemMemory: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_system_memory_percent",
			Help: "Host memory usage percentage",
		}),
		systemDisk: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_system_disk_percent",
			Help: "Disk usage percentage of the data directory",
		}),
	}
}

// Registry returns the registry the collector writes to
func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	p.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWebSocketConnection tracks "connect" and "disconnect" actions
func (p *PrometheusCollector) RecordWebSocketConnection(action string) {
	switch action {
	case "connect":
		p.websocketConnections.Inc()
	case "disconnect":
		p.websocketConnections.Dec()
	}
}

func (p *PrometheusCollector) RecordWebSocketMessage(messageType, direction string) {
	p.websocketMessages.WithLabelValues(messageType, direction).Inc()
}

func (p *PrometheusCollector) RecordStoreOperation(collection, operation string, success bool, duration time.Duration) {
	p.storeOperations.WithLabelValues(collection, operation, strconv.FormatBool(success)).Inc()
	p.storeOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordViewComputation(view string, duration time.Duration) {
	p.viewDuration.WithLabelValues(view).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordPublish(publisher string, success bool) {
	p.publishTotal.WithLabelValues(publisher, strconv.FormatBool(success)).Inc()
}

func (p *PrometheusCollector) RecordBackup(success bool, size int64) {
	p.backupsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	if success {
		p.backupSizeBytes.Set(float64(size))
	}
}

func (p *PrometheusCollector) RecordSystemResource(cpu, memory, disk float64) {
	p.systemCPU.Set(cpu)
	p.systemMemory.Set(memory)
	p.systemDisk.Set(disk)
}
