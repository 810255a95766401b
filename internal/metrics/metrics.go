package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "autoresponder"

var (
	webhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "requests_total",
		Help:      "Zendesk webhook deliveries, labeled by HTTP status",
	}, []string{"status"})

	pipelineOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "outcomes_total",
		Help:      "Deferred pipeline runs, labeled by outcome",
	}, []string{"outcome"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "Duration of deferred pipeline runs",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
	})

	mediaSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "skipped_total",
		Help:      "Media items dropped while resolving ticket comments, labeled by kind and reason",
	}, []string{"kind", "reason"})

	llmCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "call_duration_seconds",
		Help:      "Model call latency, labeled by call and result",
		Buckets:   prometheus.DefBuckets,
	}, []string{"call", "result"})
)

// Pipeline outcome labels.
const (
	OutcomeTriaged       = "triaged"
	OutcomeConfident     = "confident"
	OutcomeLowConfidence = "low_confidence"
	OutcomeFailed        = "failed"
)

func RecordWebhook(status int) {
	webhookRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func RecordOutcome(outcome string) {
	pipelineOutcomes.WithLabelValues(outcome).Inc()
}

// StartPipeline returns a func that observes the run duration when called.
func StartPipeline() func() {
	timer := prometheus.NewTimer(pipelineDuration)
	return func() {
		timer.ObserveDuration()
	}
}

func RecordMediaSkipped(kind, reason string) {
	mediaSkipped.WithLabelValues(kind, reason).Inc()
}

func ObserveLLMCall(call string, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	llmCalls.WithLabelValues(call, result).Observe(time.Since(started).Seconds())
}
