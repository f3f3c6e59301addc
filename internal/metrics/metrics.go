package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter for interview steps, outcome: advanced/completed/failed/busy
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_steps_total",
			Help: "Total number of answered interview steps",
		},
		[]string{"outcome"},
	)

	// Histogram for the upload-transcribe-analyze-persist step
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interview_step_duration_seconds",
			Help:    "Time spent processing one interview step",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"response_type"},
	)

	// Counter for generation calls that degraded to defaults, operation: analyze/transcribe
	GenerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_fallbacks_total",
			Help: "Total number of generation calls replaced by a default result",
		},
		[]string{"operation"},
	)

	// Counter for object uploads, kind: media/report
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_uploads_total",
			Help: "Total number of objects written to storage",
		},
		[]string{"kind", "status"},
	)

	InterviewsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interviews_created_total",
			Help: "Total number of interviews created",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
