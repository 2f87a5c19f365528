package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lkpatch/lkpatch/internal/engine"
)

// TimestampLayout is the layout of Report.Timestamp.
const TimestampLayout = "20060102_150405"

// Report describes one patch run. It is written next to the patched image
// and appended to the run history.
type Report struct {
	Timestamp      string                     `json:"timestamp"`
	RunID          string                     `json:"run_id"`
	Image          string                     `json:"image"`
	Output         string                     `json:"output,omitempty"`
	TotalPatches   int                        `json:"total_patches"`
	AppliedPatches int                        `json:"applied_patches"`
	SkippedPatches int                        `json:"skipped_patches"`
	DryRun         bool                       `json:"dry_run"`
	DurationMS     int64                      `json:"duration_ms"`
	SHA256Before   string                     `json:"sha256_before,omitempty"`
	SHA256After    string                     `json:"sha256_after,omitempty"`
	Results        map[string]map[string]bool `json:"results"`
}

type Meta struct {
	Image        string
	Output       string
	DryRun       bool
	Timestamp    time.Time
	Duration     time.Duration
	RunID        string
	DigestBefore string
	DigestAfter  string
}

func Build(outcome *engine.Outcome, meta Meta) Report {
	r := Report{
		Timestamp:    meta.Timestamp.Format(TimestampLayout),
		RunID:        meta.RunID,
		Image:        meta.Image,
		Output:       meta.Output,
		DryRun:       meta.DryRun,
		DurationMS:   meta.Duration.Milliseconds(),
		SHA256Before: meta.DigestBefore,
		SHA256After:  meta.DigestAfter,
		Results:      map[string]map[string]bool{},
	}
	if outcome != nil {
		r.TotalPatches = outcome.Total
		r.AppliedPatches = outcome.Applied
		r.SkippedPatches = outcome.Skipped
		r.Results = outcome.Results()
	}
	return r
}

// Time parses Timestamp in the local zone.
func (r Report) Time() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, r.Timestamp, time.Local)
}

func Marshal(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "    ")
}

// Write stores r as indented JSON at path, creating parent directories.
func Write(path string, r Report) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
