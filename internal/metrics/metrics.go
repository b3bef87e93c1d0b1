package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recipebook",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipebook",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recipebook",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	recipeMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipebook",
			Subsystem: "recipes",
			Name:      "mutations_total",
			Help:      "Recipe create/update/delete operations that were persisted.",
		},
		[]string{"op"},
	)

	recipeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recipebook",
			Subsystem: "recipes",
			Name:      "stored",
			Help:      "Number of recipes in the collection.",
		},
	)

	photoOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipebook",
			Subsystem: "photos",
			Name:      "operations_total",
			Help:      "Photo store/remove operations by backend and result.",
		},
		[]string{"backend", "op", "result"},
	)

	orphanSweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipebook",
			Subsystem: "photos",
			Name:      "orphan_sweeps_total",
			Help:      "Orphan sweeps by outcome.",
		},
		[]string{"result"},
	)

	orphanFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipebook",
			Subsystem: "photos",
			Name:      "orphan_files_total",
			Help:      "Orphaned photo files handled by the sweep.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		recipeMutations,
		recipeCount,
		photoOperations,
		orphanSweeps,
		orphanFiles,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument is a gin middleware recording request counts and latency.
// Paths are labelled by their route template so ids don't blow up cardinality.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordRecipeMutation counts a persisted mutation and updates the stored gauge.
func RecordRecipeMutation(op string, total int) {
	recipeMutations.WithLabelValues(op).Inc()
	recipeCount.Set(float64(total))
}

// SetRecipeCount sets the stored gauge, used after loading the document.
func SetRecipeCount(total int) {
	recipeCount.Set(float64(total))
}

// RecordPhotoOperation counts a photo store/remove call.
func RecordPhotoOperation(backend, op string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	photoOperations.WithLabelValues(backend, op, result).Inc()
}

// RecordOrphanSweep records one sweep and its per-file outcomes.
func RecordOrphanSweep(removed, failed int, err error) {
	result := "success"
	if err != nil {
		result = "aborted"
	}
	orphanSweeps.WithLabelValues(result).Inc()
	orphanFiles.WithLabelValues("removed").Add(float64(removed))
	orphanFiles.WithLabelValues("failed").Add(float64(failed))
}
