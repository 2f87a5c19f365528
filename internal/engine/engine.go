package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lkpatch/lkpatch/internal/naming"
	"github.com/lkpatch/lkpatch/internal/policy"
	"github.com/lkpatch/lkpatch/internal/rules"
)

var ErrNoRulesApplied = errors.New("no rules applied")

type NoRulesAppliedError struct {
	Image string
}

func (e *NoRulesAppliedError) Error() string {
	return fmt.Sprintf("no needles found in %s", e.Image)
}

func (e *NoRulesAppliedError) Is(target error) bool {
	return target == ErrNoRulesApplied
}

// Image is the byte buffer rules are applied to.
type Image interface {
	Name() string
	Contents() []byte
	// Replace overwrites the first occurrence of needle and reports its
	// offset. found is false when needle does not occur.
	Replace(needle, patch []byte) (offset int, found bool)
	RegionNames() []string
	Describe(region string) string
}

type Options struct {
	// DryRun records every rule as applied without searching the image.
	DryRun          bool
	AllowIncomplete bool
	// DumpPath overrides where the diagnostic dump goes. Defaults to
	// <image>.debug.txt.
	DumpPath string
}

// Engine applies rule sets to images. It holds no per-run state, so one
// Engine may serve several images in turn.
type Engine struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply runs every rule of set against img in catalog order. Rules are
// decoded up front, so a bad rule fails the run before any byte is written.
// On ErrNoRulesApplied the returned Outcome is still valid.
func (e *Engine) Apply(img Image, set *rules.Catalog, opts Options) (*Outcome, error) {
	compiled, err := rules.Compile(set)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Total: len(compiled)}
	if out.Total == 0 {
		e.logger.Warn("no applicable patches based on current configuration")
	} else {
		e.logger.Info("starting patching process", "categories", len(set.Categories()), "patches", out.Total)
	}

	k := 0
	for _, cat := range set.Categories() {
		e.logger.Info("processing category", "category", cat.Name, "patches", len(cat.Rules))
		co := CategoryOutcome{Name: cat.Name, Entries: make([]Entry, 0, len(cat.Rules))}

		for range cat.Rules {
			rule := compiled[k]
			k++
			entry := Entry{Needle: rule.Rule.Needle, Patch: rule.Rule.Patch, Offset: -1}

			if opts.DryRun {
				e.logger.Info("DRY RUN: would apply patch", "needle", rules.Snippet(entry.Needle), "patch", rules.Snippet(entry.Patch))
				entry.Applied = true
				out.Applied++
				co.Entries = append(co.Entries, entry)
				continue
			}

			if offset, found := img.Replace(rule.Needle, rule.Patch); found {
				entry.Applied = true
				entry.Offset = offset
				out.Applied++
				e.logger.Debug("applied patch", "needle", rules.Snippet(entry.Needle), "patch", rules.Snippet(entry.Patch), "offset", fmt.Sprintf("0x%x", offset))
			} else {
				out.Skipped++
				e.logger.Debug("needle not found", "category", cat.Name, "needle", entry.Needle)
			}
			co.Entries = append(co.Entries, entry)
		}
		out.Categories = append(out.Categories, co)
	}

	e.logger.Info("patching summary", "applied", out.Applied, "total", out.Total, "skipped", out.Skipped)

	out.Verdict = policy.Decide(out.Applied, opts.DryRun, opts.AllowIncomplete)
	if out.Verdict.NeedsDump() {
		e.dump(img, opts.DumpPath)
	}

	switch out.Verdict {
	case policy.VerdictFailed:
		return out, &NoRulesAppliedError{Image: imageName(img)}
	case policy.VerdictIncomplete:
		e.logger.Warn("no patches were applied, continuing because allow_incomplete is set", "image", imageName(img))
	}
	return out, nil
}

func imageName(img Image) string {
	if name := img.Name(); name != "" {
		return name
	}
	return "Unknown"
}

func (e *Engine) dump(img Image, path string) {
	if path == "" {
		if img.Name() == "" {
			e.logger.Warn("image has no path, skipping diagnostic dump")
			return
		}
		path = naming.DebugPath(img.Name())
	}
	if err := WriteDump(path, img); err != nil {
		e.logger.Warn("failed to write diagnostic dump", "path", path, "error", err)
		return
	}
	e.logger.Info("dumped partition info for debugging", "path", path)
}
