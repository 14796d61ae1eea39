// Package metrics records Prometheus metrics for a migration run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "migrate"

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	units       *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
	lastRun     prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Migrations processed, by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Execution time of applied or failed migrations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10), //nolint:mnd // 5ms to ~22min
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run succeeded, 0 otherwise.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	reg.MustRegister(r.units, r.duration, r.lastSuccess, r.lastRun)

	return r
}

// ObserveUnit counts a processed migration. Skipped migrations have no duration.
func (r *Recorder) ObserveUnit(status string, d time.Duration) {
	r.units.WithLabelValues(status).Inc()

	if d > 0 {
		r.duration.Observe(d.Seconds())
	}
}

// ObserveRun records the outcome of a run.
func (r *Recorder) ObserveRun(success bool) {
	v := 0.0
	if success {
		v = 1
	}

	r.lastSuccess.Set(v)
	r.lastRun.SetToCurrentTime()
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends the registry to a Pushgateway under job, replacing the
// previous push for the same grouping.
func (r *Recorder) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	p := push.New(url, job).Gatherer(r.registry)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}

	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}

	return nil
}
