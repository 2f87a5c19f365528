package patcher

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lkpatch/lkpatch/internal/config"
	"github.com/lkpatch/lkpatch/internal/engine"
	"github.com/lkpatch/lkpatch/internal/report"
	"github.com/lkpatch/lkpatch/internal/rules"
)

var filler = bytes.Repeat([]byte{0xaa}, 16)

func fastbootImage(t *testing.T) (string, []byte) {
	t.Helper()
	data := append([]byte{0xf0, 0xb5, 0xad, 0xf5, 0x92, 0x5d}, filler...)
	path := filepath.Join(t.TempDir(), "lk.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func newPatcher(cfg config.Config) *Patcher {
	p := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2026, 2, 3, 10, 4, 5, 0, time.Local) }
	p.newID = func() string { return "run-1" }
	return p
}

func readReport(t *testing.T, path string) report.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestRunDefaultCatalog(t *testing.T) {
	path, original := fastbootImage(t)

	res, err := newPatcher(config.Default()).Run("", Request{ImagePath: path})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "lk-patched.img"), res.OutputPath)
	out, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	want := append([]byte{0x00, 0x20, 0x70, 0x47, 0x92, 0x5d}, filler...)
	assert.Equal(t, want, out)

	input, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, input, "input image must not be modified")

	r := readReport(t, filepath.Join(filepath.Dir(path), "lk-patched.patch_report.json"))
	assert.Equal(t, 1, r.AppliedPatches)
	assert.Equal(t, rules.Defaults().Len(), r.TotalPatches)
	assert.Equal(t, r.TotalPatches-1, r.SkippedPatches)
	assert.Equal(t, "20260203_100405", r.Timestamp)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, res.OutputPath, r.Output)
	assert.NotEqual(t, r.SHA256Before, r.SHA256After)
	assert.True(t, r.Results["fastboot"]["f0b5adf5925d"])
	assert.False(t, r.Results["dm_verity"]["30b583b002ab0022"])
}

func TestRunDryRun(t *testing.T) {
	path, original := fastbootImage(t)
	cfg := config.Default()
	cfg.DryRun = true

	res, err := newPatcher(cfg).Run("", Request{ImagePath: path})
	require.NoError(t, err)

	_, err = os.Stat(res.OutputPath)
	assert.True(t, os.IsNotExist(err), "dry run must not write an image")

	input, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, input)

	r := readReport(t, res.ReportPath)
	assert.True(t, r.DryRun)
	assert.Equal(t, r.TotalPatches, r.AppliedPatches)
	assert.Empty(t, r.Output)
	assert.Empty(t, r.SHA256Before)
}

func TestRunAllExcludedFails(t *testing.T) {
	path, _ := fastbootImage(t)
	cfg := config.Default()
	cfg.ExcludeCategories = rules.Defaults().Names()

	res, err := newPatcher(cfg).Run("", Request{ImagePath: path})
	require.ErrorIs(t, err, engine.ErrNoRulesApplied)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Report.TotalPatches)

	_, err = os.Stat(res.OutputPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".debug.txt")
	assert.NoError(t, err, "diagnostic dump expected")
}

func TestRunAllExcludedAllowIncomplete(t *testing.T) {
	path, original := fastbootImage(t)
	cfg := config.Default()
	cfg.ExcludeCategories = rules.Defaults().Names()
	cfg.AllowIncomplete = true

	res, err := newPatcher(cfg).Run("", Request{ImagePath: path})
	require.NoError(t, err)

	out, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, original, out)

	_, err = os.Stat(path + ".debug.txt")
	assert.NoError(t, err)
	assert.Equal(t, res.Report.SHA256Before, res.Report.SHA256After)
}

func TestRunBadOverrideTouchesNothing(t *testing.T) {
	for _, verify := range []bool{true, false} {
		path, original := fastbootImage(t)
		override := filepath.Join(filepath.Dir(path), "patches.json")
		require.NoError(t, os.WriteFile(override, []byte(`{"fastboot": {"zz": "00"}}`), 0o644))

		cfg := config.Default()
		cfg.VerifyPatch = verify

		res, err := newPatcher(cfg).Run(override, Request{ImagePath: path})
		require.ErrorIs(t, err, rules.ErrValidation, "verify=%v", verify)
		assert.Nil(t, res)

		var ruleErr *rules.RuleError
		require.ErrorAs(t, err, &ruleErr)
		assert.Equal(t, "fastboot", ruleErr.Category)
		assert.Equal(t, "zz", ruleErr.Needle)

		_, err = os.Stat(filepath.Join(filepath.Dir(path), "lk-patched.img"))
		assert.True(t, os.IsNotExist(err))
		input, _ := os.ReadFile(path)
		assert.Equal(t, original, input)
	}
}

func TestRunWarnsWhenAppliedRulesLeaveDigestUnchanged(t *testing.T) {
	path, original := fastbootImage(t)
	override := filepath.Join(filepath.Dir(path), "patches.json")
	require.NoError(t, os.WriteFile(override, []byte(`{"fastboot": {"f0b5adf5925d": "f0b5adf5925d"}}`), 0o644))

	var logs bytes.Buffer
	p := newPatcher(config.Default())
	p.logger = slog.New(slog.NewTextHandler(&logs, nil))

	res, err := p.Run(override, Request{ImagePath: path})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Report.AppliedPatches)
	assert.Equal(t, res.Report.SHA256Before, res.Report.SHA256After)
	assert.Contains(t, logs.String(), "patches reported applied but image digest is unchanged")

	out, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, original, out)
}

func TestRunPatchedImageAgain(t *testing.T) {
	path, _ := fastbootImage(t)
	p := newPatcher(config.Default())

	res, err := p.Run("", Request{ImagePath: path})
	require.NoError(t, err)

	again, err := p.Run("", Request{ImagePath: res.OutputPath, OutputPath: filepath.Join(t.TempDir(), "twice.img")})
	require.ErrorIs(t, err, engine.ErrNoRulesApplied)
	assert.False(t, again.Report.Results["fastboot"]["f0b5adf5925d"])
}

func TestRunBackup(t *testing.T) {
	path, original := fastbootImage(t)
	cfg := config.Default()
	cfg.Backup = true
	cfg.BackupDir = filepath.Join(t.TempDir(), "backups")

	res, err := newPatcher(cfg).Run("", Request{ImagePath: path})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.BackupDir, "lk_backup_20260203_100405.img"), res.BackupPath)
	backup, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, original, backup)
}

func TestRunRecordsHistoryAndMetrics(t *testing.T) {
	path, _ := fastbootImage(t)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.HistoryFile = filepath.Join(dir, "history.jsonl")
	cfg.MetricsFile = filepath.Join(dir, "lkpatch.prom")
	p := newPatcher(cfg)

	_, err := p.Run("", Request{ImagePath: path})
	require.NoError(t, err)
	cfg.DryRun = true
	_, err = newPatcher(cfg).Run("", Request{ImagePath: path})
	require.NoError(t, err)

	reader := &report.Reader{}
	history, err := reader.Read(cfg.HistoryFile)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].DryRun)
	assert.True(t, history[1].DryRun)

	metrics, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(metrics), `lkpatch_runs_total{result="dry_run"} 1`))
}

func TestRunMissingImage(t *testing.T) {
	_, err := newPatcher(config.Default()).Run("", Request{ImagePath: filepath.Join(t.TempDir(), "missing.img")})
	assert.ErrorIs(t, err, rules.ErrIO)
}

func TestPatchSharesCatalogAcrossImages(t *testing.T) {
	p := newPatcher(config.Default())
	catalog, err := p.LoadCatalog("")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		path, _ := fastbootImage(t)
		res, err := p.Patch(catalog, Request{ImagePath: path})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Outcome.Applied)
	}
	assert.Equal(t, rules.Defaults().Len(), catalog.Len())
}
