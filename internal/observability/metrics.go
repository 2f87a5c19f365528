package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lkpatch/lkpatch/internal/policy"
	"github.com/lkpatch/lkpatch/internal/report"
)

type Metrics struct {
	runsTotal   *prometheus.CounterVec
	rulesTotal  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "lkpatch_runs_total", Help: "Total patch runs"},
			[]string{"result"},
		),
		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "lkpatch_rules_total", Help: "Total rules evaluated"},
			[]string{"category", "result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lkpatch_run_duration_seconds",
				Help:    "Patch run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.runsTotal,
		m.rulesTotal,
		m.runDuration,
	)

	return m
}

// Observe records one finished run.
func (m *Metrics) Observe(verdict policy.Verdict, r report.Report) {
	if m == nil {
		return
	}

	m.runsTotal.WithLabelValues(string(verdict)).Inc()
	m.runDuration.Observe((time.Duration(r.DurationMS) * time.Millisecond).Seconds())

	for category, needles := range r.Results {
		for _, applied := range needles {
			result := "skipped"
			if applied {
				result = "applied"
			}
			m.rulesTotal.WithLabelValues(category, result).Inc()
		}
	}
}

// WriteTextfile writes everything gathered from reg to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string, reg prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
