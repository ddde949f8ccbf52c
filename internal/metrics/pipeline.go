package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recognition and resolution Prometheus metrics.
var (
	RecognitionJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idintake",
			Name:      "recognition_jobs_total",
			Help:      "Recognition jobs by final outcome",
		},
		[]string{"outcome"}, // succeeded, failed, timed_out, rejected, unreachable, canceled, error
	)

	RecognitionPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idintake",
			Name:      "recognition_polls_total",
			Help:      "Recognition poll attempts by result",
		},
		[]string{"result"}, // pending, succeeded, failed, miss
	)

	RecognitionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "idintake",
			Name:      "recognition_duration_seconds",
			Help:      "End-to-end recognition duration from submit to terminal status",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	ResolverStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idintake",
			Name:      "resolver_stage_total",
			Help:      "Address resolver stage outcomes",
		},
		[]string{"level", "result"}, // result: hit, miss, error, skipped
	)

	ReferenceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idintake",
			Name:      "reference_cache_total",
			Help:      "Reference lookup cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RefinerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idintake",
			Name:      "refiner_requests_total",
			Help:      "LLM field refinement requests",
		},
		[]string{"model", "status"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecognitionJobsTotal)
	prometheus.MustRegister(RecognitionPollsTotal)
	prometheus.MustRegister(RecognitionDuration)
	prometheus.MustRegister(ResolverStageTotal)
	prometheus.MustRegister(ReferenceCacheTotal)
	prometheus.MustRegister(RefinerRequestsTotal)
	pipelineMetricsRegistered = true
}
