package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
)

type Summary struct {
	Runs          int           `json:"runs"`
	LiveRuns      int           `json:"live_runs"`
	DryRuns       int           `json:"dry_runs"`
	FailedRuns    int           `json:"failed_runs"`
	Applied       int           `json:"applied_patches"`
	Skipped       int           `json:"skipped_patches"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	TopCategories []CountItem   `json:"top_categories"`
	TopMissing    []CountItem   `json:"top_missing"`
	Duration      DurationStats `json:"duration_ms"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DurationStats summarizes run durations in milliseconds.
type DurationStats struct {
	Min  int64 `json:"min"`
	Max  int64 `json:"max"`
	Mean int64 `json:"mean"`
}

func durationStats(values []int64) DurationStats {
	if len(values) == 0 {
		return DurationStats{}
	}
	stats := DurationStats{Min: slices.Min(values), Max: slices.Max(values)}
	var total int64
	for _, v := range values {
		total += v
	}
	stats.Mean = total / int64(len(values))
	return stats
}

// Reader loads run history written one report per line.
type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reports []Report
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rep Report
		if err := json.Unmarshal([]byte(text), &rep); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if !r.Since.IsZero() {
			ts, err := rep.Time()
			if err != nil || ts.Before(r.Since) {
				continue
			}
		}
		reports = append(reports, rep)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Summarize aggregates a run history. A live run that applied nothing counts
// as failed.
func Summarize(reports []Report) Summary {
	var summary Summary
	applied := map[string]int{}
	missing := map[string]int{}
	durations := make([]int64, 0, len(reports))

	for _, r := range reports {
		summary.Runs++
		durations = append(durations, r.DurationMS)
		if ts, err := r.Time(); err == nil {
			if summary.Start.IsZero() || ts.Before(summary.Start) {
				summary.Start = ts
			}
			if ts.After(summary.End) {
				summary.End = ts
			}
		}

		summary.Applied += r.AppliedPatches
		summary.Skipped += r.SkippedPatches
		if r.DryRun {
			summary.DryRuns++
			countApplied(applied, r.Results)
			continue
		}
		summary.LiveRuns++
		if r.AppliedPatches == 0 {
			summary.FailedRuns++
		}
		countApplied(applied, r.Results)
		countMissing(missing, r.Results)
	}

	summary.Duration = durationStats(durations)
	summary.TopCategories = mostFrequent(applied, topN)
	summary.TopMissing = mostFrequent(missing, topN)
	return summary
}

const topN = 5

func countApplied(counts map[string]int, results map[string]map[string]bool) {
	for category, needles := range results {
		for _, ok := range needles {
			if ok {
				counts[category]++
			}
		}
	}
}

// countMissing keys missing needles as category/needle.
func countMissing(counts map[string]int, results map[string]map[string]bool) {
	for category, needles := range results {
		for needle, ok := range needles {
			if !ok {
				counts[category+"/"+needle]++
			}
		}
	}
}

// mostFrequent returns the n largest counts, ties broken by key.
func mostFrequent(counts map[string]int, n int) []CountItem {
	if len(counts) == 0 {
		return nil
	}
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	slices.SortFunc(items, func(a, b CountItem) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Key, b.Key)
	})
	return items[:min(n, len(items))]
}

type renderStyle struct {
	heading func(b *strings.Builder, title string)
	field   string
	list    string
	empty   string
}

var (
	textStyle = renderStyle{
		heading: func(b *strings.Builder, title string) { fmt.Fprintf(b, "%s:\n", title) },
		field:   "%s: %s\n",
		list:    "- %s: %d\n",
		empty:   "- none\n",
	}
	markdownStyle = renderStyle{
		heading: func(b *strings.Builder, title string) { fmt.Fprintf(b, "\n## %s\n\n", title) },
		field:   "- %s: %s\n",
		list:    "- %s: %d\n",
		empty:   "- none\n",
	}
)

func render(summary Summary, style renderStyle) string {
	var b strings.Builder
	fields := [][2]string{
		{"Runs", fmt.Sprint(summary.Runs)},
		{"Live runs", fmt.Sprint(summary.LiveRuns)},
		{"Dry runs", fmt.Sprint(summary.DryRuns)},
		{"Failed runs", fmt.Sprint(summary.FailedRuns)},
		{"Patches applied/skipped", fmt.Sprintf("%d/%d", summary.Applied, summary.Skipped)},
		{"Duration min/mean/max (ms)", fmt.Sprintf("%d/%d/%d", summary.Duration.Min, summary.Duration.Mean, summary.Duration.Max)},
	}
	for _, f := range fields {
		fmt.Fprintf(&b, style.field, f[0], f[1])
	}

	for _, section := range []struct {
		title string
		items []CountItem
	}{
		{"Top patched categories", summary.TopCategories},
		{"Top missing needles", summary.TopMissing},
	} {
		style.heading(&b, section.title)
		if len(section.items) == 0 {
			b.WriteString(style.empty)
		}
		for _, item := range section.items {
			fmt.Fprintf(&b, style.list, item.Key, item.Count)
		}
	}
	return b.String()
}

func RenderText(summary Summary) string {
	return render(summary, textStyle)
}

func RenderMarkdown(summary Summary) string {
	return "# lkpatch Report\n\n## Totals\n\n" + render(summary, markdownStyle)
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

// WriteOutput writes content to path, or to stdout when path is empty.
func WriteOutput(path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o644)
}
