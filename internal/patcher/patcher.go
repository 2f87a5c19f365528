package patcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lkpatch/lkpatch/internal/config"
	"github.com/lkpatch/lkpatch/internal/engine"
	"github.com/lkpatch/lkpatch/internal/lkimage"
	"github.com/lkpatch/lkpatch/internal/logging"
	"github.com/lkpatch/lkpatch/internal/naming"
	"github.com/lkpatch/lkpatch/internal/observability"
	"github.com/lkpatch/lkpatch/internal/policy"
	"github.com/lkpatch/lkpatch/internal/report"
	"github.com/lkpatch/lkpatch/internal/rules"
	"github.com/lkpatch/lkpatch/internal/verify"
)

// Image is an engine.Image that can be written back to disk.
type Image interface {
	engine.Image
	Save(path string) error
}

type Request struct {
	ImagePath string
	// OutputPath defaults to <stem>-patched<ext> next to the image.
	OutputPath string
	// ReportPath defaults to the output path with a .patch_report.json
	// extension.
	ReportPath string
}

type Result struct {
	Outcome    *engine.Outcome
	Report     report.Report
	OutputPath string
	ReportPath string
	BackupPath string
}

// Patcher runs the patch pipeline for one image at a time.
type Patcher struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics

	load  func(path string) (Image, error)
	now   func() time.Time
	newID func() string
}

func New(cfg config.Config, logger *slog.Logger) *Patcher {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	return &Patcher{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  observability.NewMetrics(registry),
		load: func(path string) (Image, error) {
			return lkimage.Load(path)
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// LoadCatalog builds the rule catalog from the defaults and the optional
// override file, and warns about category filters it does not define.
func (p *Patcher) LoadCatalog(overridePath string) (*rules.Catalog, error) {
	catalog, err := rules.Build(rules.BuildOptions{
		OverridePath: overridePath,
		Verify:       p.cfg.VerifyPatch,
		Logger:       p.logger,
	})
	if err != nil {
		return nil, err
	}
	for _, name := range p.cfg.UnknownCategories(catalog) {
		p.logger.Warn("category filter names an unknown category", "category", name)
	}
	return catalog, nil
}

// Run patches one image with the catalog built from overridePath.
func (p *Patcher) Run(overridePath string, req Request) (*Result, error) {
	catalog, err := p.LoadCatalog(overridePath)
	if err != nil {
		return nil, err
	}
	return p.Patch(catalog, req)
}

// Patch selects the configured categories of catalog and applies them to
// req.ImagePath. Nothing is written when rule compilation fails. A run that
// applied no rule is recorded in history and metrics before its error is
// returned.
func (p *Patcher) Patch(catalog *rules.Catalog, req Request) (*Result, error) {
	start := p.now()
	res := &Result{OutputPath: req.OutputPath, ReportPath: req.ReportPath}
	if res.OutputPath == "" {
		res.OutputPath = naming.PatchedPath(req.ImagePath)
	}
	if res.ReportPath == "" {
		res.ReportPath = naming.ReportPath(res.OutputPath)
	}

	set := rules.Select(catalog, p.cfg.PatchCategories, p.cfg.ExcludeCategories)
	logger := p.logger.With("image", req.ImagePath)
	logger.Info("patching image", "categories", set.Names(), "dry_run", p.cfg.DryRun)

	img, err := p.load(req.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: load image: %v", rules.ErrIO, err)
	}

	if p.cfg.Backup && !p.cfg.DryRun {
		res.BackupPath = naming.BackupPath(req.ImagePath, p.cfg.BackupDir, start)
		if err := copyFile(req.ImagePath, res.BackupPath); err != nil {
			return nil, fmt.Errorf("%w: backup %s: %v", rules.ErrIO, req.ImagePath, err)
		}
		logger.Info("created backup", "path", res.BackupPath)
	}

	var before string
	if !p.cfg.DryRun {
		before = verify.Fingerprint(img.Contents())
	}

	outcome, applyErr := engine.New(logger).Apply(img, set, engine.Options{
		DryRun:          p.cfg.DryRun,
		AllowIncomplete: p.cfg.AllowIncomplete,
	})
	if outcome == nil {
		return nil, applyErr
	}
	res.Outcome = outcome

	var after string
	if !p.cfg.DryRun {
		after = verify.Fingerprint(img.Contents())
		if outcome.Applied > 0 && !verify.Changed(before, after) {
			logger.Warn("patches reported applied but image digest is unchanged", "sha256", after)
		}
	}

	meta := report.Meta{
		Image:        req.ImagePath,
		DryRun:       p.cfg.DryRun,
		Timestamp:    start,
		RunID:        p.newID(),
		DigestBefore: before,
		DigestAfter:  after,
	}

	if applyErr != nil {
		meta.Duration = p.now().Sub(start)
		res.Report = report.Build(outcome, meta)
		p.record(outcome.Verdict, res.Report)
		return res, applyErr
	}

	if !p.cfg.DryRun {
		if err := img.Save(res.OutputPath); err != nil {
			return nil, fmt.Errorf("%w: save %s: %v", rules.ErrIO, res.OutputPath, err)
		}
		meta.Output = res.OutputPath
		logger.Info("saved patched image", "path", res.OutputPath)
	}

	meta.Duration = p.now().Sub(start)
	res.Report = report.Build(outcome, meta)
	if err := report.Write(res.ReportPath, res.Report); err != nil {
		logger.Warn("failed to write report", "path", res.ReportPath, "error", err)
	} else {
		logger.Info("wrote patch report", "path", res.ReportPath)
	}
	p.record(outcome.Verdict, res.Report)

	return res, nil
}

// record appends r to the history file and refreshes the metrics textfile.
// Both are best effort.
func (p *Patcher) record(verdict policy.Verdict, r report.Report) {
	if p.cfg.HistoryFile != "" {
		if err := logging.AppendHistory(p.cfg.HistoryFile, r); err != nil {
			p.logger.Warn("failed to append run history", "path", p.cfg.HistoryFile, "error", err)
		}
	}

	p.metrics.Observe(verdict, r)
	if p.cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(p.cfg.MetricsFile, p.registry); err != nil {
			p.logger.Warn("failed to write metrics", "path", p.cfg.MetricsFile, "error", err)
		}
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFile(dst, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
