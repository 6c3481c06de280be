// Package metrics provides Prometheus metrics for the corvex backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corvex_operations_total",
			Help: "Storage operations by transport, operation and result kind",
		},
		[]string{"transport", "operation", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corvex_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corvex_renders_total",
			Help: "PDF renders by result kind",
		},
		[]string{"result"},
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corvex_render_duration_seconds",
			Help:    "PDF render duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	renderBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvex_render_bytes_total",
			Help: "Total bytes of PDF produced",
		},
	)

	treeEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corvex_tree_entries",
			Help: "Files and folders seen by the last full tree listing",
		},
		[]string{"type"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corvex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corvex_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corvex_websocket_connections",
			Help: "Open websocket connections",
		},
	)
)

// Timer measures one operation.
type Timer struct {
	start     time.Time
	transport string
	operation string
}

// NewTimer starts timing operation on transport ("ws" or "http").
func NewTimer(transport, operation string) *Timer {
	return &Timer{start: time.Now(), transport: transport, operation: operation}
}

// Stop records the operation with its result kind; an empty kind is "ok".
func (t *Timer) Stop(kind string) {
	if kind == "" {
		kind = "ok"
	}
	operationsTotal.WithLabelValues(t.transport, t.operation, kind).Inc()
	operationDuration.WithLabelValues(t.operation).Observe(time.Since(t.start).Seconds())
}

// RecordRender records a finished render.
func RecordRender(kind string, d time.Duration, size int) {
	if kind == "" {
		kind = "ok"
	}
	rendersTotal.WithLabelValues(kind).Inc()
	renderDuration.Observe(d.Seconds())
	renderBytes.Add(float64(size))
}

// SetTreeSize records the size of the last full listing.
func SetTreeSize(files, folders int) {
	treeEntries.WithLabelValues("file").Set(float64(files))
	treeEntries.WithLabelValues("folder").Set(float64(folders))
}

// ConnectionOpened and ConnectionClosed track websocket connections.
func ConnectionOpened() { websocketConnections.Inc() }

func ConnectionClosed() { websocketConnections.Dec() }

// Middleware records HTTP request metrics. The route pattern is used as the
// path label so ids in query strings do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
