package rules

import (
	"log/slog"
	"os"
)

type BuildOptions struct {
	// OverridePath is an optional override document merged over the defaults.
	OverridePath string
	// Verify validates every rule of the merged catalog.
	Verify bool
	Logger *slog.Logger
}

// Build assembles the catalog for one run: defaults, then the override (if
// any), then validation of the merged result.
func Build(opts BuildOptions) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog := Defaults()

	if opts.OverridePath != "" {
		data, err := os.ReadFile(opts.OverridePath)
		if err != nil {
			logger.Warn("patch file not readable, using defaults", "path", opts.OverridePath, "error", err)
		} else {
			override, err := ParseOverride(data)
			if err != nil {
				return nil, withPath(err, opts.OverridePath)
			}
			for _, name := range override.Skipped {
				logger.Warn("skipping invalid category: patches must be an object", "category", name, "path", opts.OverridePath)
			}
			catalog = catalog.Merge(override)
			logger.Debug("merged patch file", "path", opts.OverridePath, "mode", override.Mode)
		}
	}

	if opts.Verify {
		if err := catalog.Validate(); err != nil {
			return nil, err
		}
	}

	logger.Info("loaded patches", "patches", catalog.Len(), "categories", len(catalog.categories))
	return catalog, nil
}
