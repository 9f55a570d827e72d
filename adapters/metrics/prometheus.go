// Package metrics exports benchmark reports as Prometheus metrics written to a
// node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/layer-3/revbench/core"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements the MetricsRecorder interface on a private registry
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	phaseDuration  *prometheus.GaugeVec
	falsePositives *prometheus.GaugeVec
	falseNegatives *prometheus.GaugeVec
	memoryBytes    *prometheus.GaugeVec
	runs           *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder whose metric names are prefixed
// with namespace (e.g. "revbench").
func NewPrometheusRecorder(namespace string) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of a benchmark phase.",
		}, []string{"registry", "phase"}),
		falsePositives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "false_positives",
			Help:      "Never-inserted tokens reported as invalidated.",
		}, []string{"registry"}),
		falseNegatives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "false_negatives",
			Help:      "Inserted tokens reported as not invalidated.",
		}, []string{"registry"}),
		memoryBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_bytes",
			Help:      "Backing store memory growth over the insert phase.",
		}, []string{"registry"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Benchmark runs by outcome.",
		}, []string{"registry", "status"}),
	}

	for _, c := range []prometheus.Collector{r.phaseDuration, r.falsePositives, r.falseNegatives, r.memoryBytes, r.runs} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

// RecordReport records a finished report. Failed runs only bump the run
// counter and the false negative gauge.
func (r *PrometheusRecorder) RecordReport(report core.Report) {
	if report.Failed() {
		r.runs.WithLabelValues(report.Registry, "error").Inc()
		r.falseNegatives.WithLabelValues(report.Registry).Set(float64(report.Query.FalseNegatives))
		return
	}
	r.runs.WithLabelValues(report.Registry, "success").Inc()

	r.phaseDuration.WithLabelValues(report.Registry, string(core.OperationInsert)).Set(report.Insert.Seconds())
	r.phaseDuration.WithLabelValues(report.Registry, string(core.OperationQuery)).Set(report.Query.Seconds())
	r.falsePositives.WithLabelValues(report.Registry).Set(float64(report.Probe.FalsePositives))
	r.falseNegatives.WithLabelValues(report.Registry).Set(float64(report.Query.FalseNegatives))
	r.memoryBytes.WithLabelValues(report.Registry).Set(float64(report.MemoryBytes))
}

// Registry returns the underlying Prometheus registry
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every recorded metric to path in text exposition format
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
