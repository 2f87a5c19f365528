package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lkpatch/lkpatch/internal/policy"
	"github.com/lkpatch/lkpatch/internal/report"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	r := report.Report{
		DurationMS: 12,
		Results: map[string]map[string]bool{
			"fastboot": {"f0b5adf5925d": true, "2de9f04fadf5ac5d": false},
		},
	}
	metrics.Observe(policy.VerdictApplied, r)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNilMetricsObserve(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.Observe(policy.VerdictFailed, report.Report{})
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.Observe(policy.VerdictDryRun, report.Report{Results: map[string]map[string]bool{"red_state": {"f0b5002489b0": true}}})

	path := filepath.Join(t.TempDir(), "textfile", "lkpatch.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lkpatch_runs_total{result="dry_run"} 1`)
	assert.Contains(t, string(data), `lkpatch_rules_total{category="red_state",result="applied"} 1`)
}
