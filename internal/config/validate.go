package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lkpatch/lkpatch/internal/logging"
	"github.com/lkpatch/lkpatch/internal/rules"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

func (v *ValidationError) Is(target error) bool {
	return target == rules.ErrConfiguration
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		v.Add("log_level must be DEBUG|INFO|WARNING|ERROR|CRITICAL, got %q", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		v.Add("log_format must be text|json, got %q", c.LogFormat)
	}

	validateCategories(v, "patch_categories", c.PatchCategories)
	validateCategories(v, "exclude_categories", c.ExcludeCategories)

	if c.BackupDir != "" {
		if err := requireDirOrMissing(c.BackupDir); err != nil {
			v.Add("backup_dir invalid: %v", err)
		}
	}

	for key, path := range map[string]string{
		"log_file":     c.LogFile,
		"history_file": c.HistoryFile,
		"metrics_file": c.MetricsFile,
	} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			v.Add("%s %s is a directory", key, path)
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateCategories(v *ValidationError, key string, names []string) {
	seen := map[string]struct{}{}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			v.Add("%s[%d] is empty", key, i)
			continue
		}
		if _, exists := seen[name]; exists {
			v.Add("%s[%d] %q is duplicated", key, i, name)
			continue
		}
		seen[name] = struct{}{}
	}
}

// requireDirOrMissing accepts a directory or a path that does not exist yet.
func requireDirOrMissing(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// UnknownCategories lists the names in c's category filters that catalog
// does not define.
func (c *Config) UnknownCategories(catalog *rules.Catalog) []string {
	var unknown []string
	for _, list := range [][]string{c.PatchCategories, c.ExcludeCategories} {
		for _, name := range list {
			if _, ok := catalog.Category(name); !ok {
				unknown = append(unknown, name)
			}
		}
	}
	return unknown
}
