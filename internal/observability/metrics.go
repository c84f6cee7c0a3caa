package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	registerOnce sync.Once

	apiAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "megaverse",
			Subsystem: "api",
			Name:      "attempts_total",
			Help:      "Remote API request attempts, including retries.",
		},
		[]string{"method", "endpoint", "status"},
	)
	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "megaverse",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Remote API attempt duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	apiOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "megaverse",
			Subsystem: "api",
			Name:      "outcomes_total",
			Help:      "Remote API operations after retries are exhausted or one attempt succeeds.",
		},
		[]string{"method", "endpoint", "outcome"},
	)
	provisionItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "megaverse",
			Subsystem: "provision",
			Name:      "items_total",
			Help:      "Provisioning items by operation, entity kind and outcome.",
		},
		[]string{"operation", "kind", "outcome"},
	)
	goalUnparsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "megaverse",
			Subsystem: "goal",
			Name:      "unparsed_tokens_total",
			Help:      "Goal map tokens dropped because the grammar did not recognize them.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(apiAttempts, apiDuration, apiOutcomes, provisionItems, goalUnparsed)
	})
}

// RecordAPIAttempt records one HTTP attempt. status is 0 when no response arrived.
func RecordAPIAttempt(method, endpoint string, status int, duration time.Duration) {
	RegisterMetrics()
	route := routeLabel(endpoint)
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	apiAttempts.WithLabelValues(method, route, statusLabel).Inc()
	apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordAPIOutcome(method, endpoint string, success bool) {
	RegisterMetrics()
	outcome := OutcomeFailed
	if success {
		outcome = OutcomeSuccess
	}
	apiOutcomes.WithLabelValues(method, routeLabel(endpoint), outcome).Inc()
}

func RecordProvisionItem(operation, kind, outcome string) {
	RegisterMetrics()
	provisionItems.WithLabelValues(operation, kind, outcome).Inc()
}

func RecordUnparsedGoalTokens(n int) {
	RegisterMetrics()
	if n > 0 {
		goalUnparsed.Add(float64(n))
	}
}

// WriteTextfile dumps every registered metric to path in the text exposition
// format, for pickup by a node-exporter textfile collector.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// routeLabel keeps candidate identifiers out of label values.
func routeLabel(endpoint string) string {
	if strings.HasPrefix(endpoint, "/map/") && strings.HasSuffix(endpoint, "/goal") {
		return "/map/:candidate/goal"
	}
	return endpoint
}
