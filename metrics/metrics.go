package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts completed analysis runs by outcome.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoreport",
		Subsystem: "pipeline",
		Name:      "analyses_total",
		Help:      "Total number of analysis runs, labeled by result (ok, degraded, invalid_image).",
	}, []string{"result"})

	// AnalysisDurationSeconds is end-to-end time per analysis run.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecoreport",
		Subsystem: "pipeline",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time of one analysis run (image prep + three model calls).",
		// Remote model calls dominate; keep buckets coarse.
		Buckets: []float64{0.05, 0.25, 1, 2, 5, 10, 20, 60, 120, 300},
	}, []string{"result"})

	// StepFallbacksTotal counts pipeline steps that fell back to their
	// deterministic path instead of the model reply.
	StepFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoreport",
		Subsystem: "pipeline",
		Name:      "step_fallbacks_total",
		Help:      "Total number of per-step fallbacks, labeled by step (classify, severity, report).",
	}, []string{"step"})

	// EmailSubmissionsTotal counts outbound report submissions by outcome.
	EmailSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoreport",
		Subsystem: "pipeline",
		Name:      "email_submissions_total",
		Help:      "Total number of report email submissions, labeled by result.",
	}, []string{"result"})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			StepFallbacksTotal,
			EmailSubmissionsTotal,
		)
	})
}
