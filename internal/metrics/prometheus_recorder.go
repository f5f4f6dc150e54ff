package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	attempts      *prom.CounterVec
	retries       *prom.CounterVec
	outcomes      *prom.CounterVec
	buildDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers the build metrics on reg. A
// nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		registry: reg,
		attempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "vbuild",
			Name:      "build_attempts_total",
			Help:      "Build script invocations, retries included",
		}, []string{"variant"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "vbuild",
			Name:      "build_retries_total",
			Help:      "Build re-runs caused by transient infrastructure failures",
		}, []string{"variant"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "vbuild",
			Name:      "build_outcomes_total",
			Help:      "Build invocations by final status",
		}, []string{"outcome"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "vbuild",
			Name:      "build_duration_seconds",
			Help:      "Wall time of a build invocation including retries",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		}),
	}

	reg.MustRegister(pr.attempts, pr.retries, pr.outcomes, pr.buildDuration)

	return pr
}

// Registry returns the registry the metrics live in.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncBuildAttempt(variant string) {
	if p == nil {
		return
	}
	p.attempts.WithLabelValues(variant).Inc()
}

func (p *PrometheusRecorder) IncBuildRetry(variant string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(variant).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

// WriteTextfile writes all gathered metrics to path in the text exposition
// format. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
