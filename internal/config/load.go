package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lkpatch/lkpatch/internal/rules"
)

// fileDoc accepts the available_patches listing written by Save so an
// exported file can be loaded back. The listing itself is ignored.
type fileDoc struct {
	Config           `yaml:",inline"`
	AvailablePatches yaml.Node `yaml:"available_patches"`
}

// Load reads a YAML or JSON config on top of the defaults. Unknown keys are
// rejected. Relative paths are resolved against the config file directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	doc := fileDoc{Config: Default()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse config %s: %v", rules.ErrConfiguration, path, err)
	}
	cfg := doc.Config

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.baseDir = filepath.Dir(absPath)
	cfg.LogFile = cfg.resolvePath(cfg.LogFile)
	cfg.BackupDir = cfg.resolvePath(cfg.BackupDir)
	cfg.HistoryFile = cfg.resolvePath(cfg.HistoryFile)
	cfg.MetricsFile = cfg.resolvePath(cfg.MetricsFile)

	return &cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}
	return Load(path)
}

func (c *Config) resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

type exportDoc struct {
	Config           `yaml:",inline"`
	AvailablePatches *rules.Catalog `yaml:"available_patches,omitempty" json:"available_patches,omitempty"`
}

// Save writes c, plus the catalog as available_patches when set. Files
// ending in .json are written as JSON, everything else as YAML.
func Save(path string, c Config, catalog *rules.Catalog) error {
	doc := exportDoc{Config: c, AvailablePatches: catalog}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(doc, "", "    ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", rules.ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", rules.ErrIO, err)
	}
	return nil
}
