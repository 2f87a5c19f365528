package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lkpatch/lkpatch/internal/config"
	"github.com/lkpatch/lkpatch/internal/lkimage"
	"github.com/lkpatch/lkpatch/internal/logging"
	"github.com/lkpatch/lkpatch/internal/rules"
)

func newLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	return logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
}

// defaultLogger is used by commands that take no config file.
func defaultLogger() *slog.Logger {
	cfg := config.Default()
	logger, _, err := newLogger(&cfg)
	if err != nil {
		return slog.Default()
	}
	return logger
}

func loadCatalog(patchesPath string, verify bool, logger *slog.Logger) (*rules.Catalog, error) {
	return rules.Build(rules.BuildOptions{OverridePath: patchesPath, Verify: verify, Logger: logger})
}

func findPartition(img *lkimage.Image, name string) (*lkimage.Partition, error) {
	p, ok := img.Partition(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", lkimage.ErrPartitionMissing, name, strings.Join(img.RegionNames(), ", "))
	}
	return p, nil
}
