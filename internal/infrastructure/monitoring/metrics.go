package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Device command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Session metrics
	SessionConnected prometheus.Gauge
	ConnectsTotal    *prometheus.CounterVec
	DisconnectsTotal prometheus.Counter

	// File transfer metrics
	TransferBytes *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frameo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frameo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frameo_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frameo_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frameo_device_commands_total",
				Help: "Total number of device commands dispatched",
			},
			[]string{"transport", "operation", "status"},
		),
		CommandDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frameo_device_command_duration_seconds",
				Help:    "Device command duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"transport", "operation"},
		),
		SessionConnected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "frameo_session_connected",
				Help: "1 when a device session is active, 0 otherwise",
			},
		),
		ConnectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frameo_session_connects_total",
				Help: "Total number of connect attempts",
			},
			[]string{"transport", "status"},
		),
		DisconnectsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "frameo_session_disconnects_total",
				Help: "Total number of disconnects",
			},
		),

		TransferBytes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frameo_transfer_bytes_total",
				Help: "Total bytes transferred to and from the device",
			},
			[]string{"direction"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "frameo_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordCommand records a device command
func (m *Metrics) RecordCommand(transport, operation, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(transport, operation, status).Inc()
	m.CommandDuration.WithLabelValues(transport, operation).Observe(duration.Seconds())
}

// RecordConnect records a connect attempt
func (m *Metrics) RecordConnect(transport, status string) {
	m.ConnectsTotal.WithLabelValues(transport, status).Inc()
}

// RecordTransfer records bytes moved to ("push") or from ("pull") the device
func (m *Metrics) RecordTransfer(direction string, bytes int64) {
	m.TransferBytes.WithLabelValues(direction).Add(float64(bytes))
}

// SetConnected sets the session connected gauge
func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.SessionConnected.Set(1)
	} else {
		m.SessionConnected.Set(0)
	}
}

// IncDisconnects increments the disconnect counter
func (m *Metrics) IncDisconnects() {
	m.DisconnectsTotal.Inc()
}
