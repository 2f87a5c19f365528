package config

// Config holds the run options. Every key has a default, so an empty file is
// a valid configuration.
type Config struct {
	LogLevel          string   `yaml:"log_level" json:"log_level"`
	LogFormat         string   `yaml:"log_format" json:"log_format"`
	LogFile           string   `yaml:"log_file" json:"log_file"`
	Backup            bool     `yaml:"backup" json:"backup"`
	BackupDir         string   `yaml:"backup_dir" json:"backup_dir"`
	VerifyPatch       bool     `yaml:"verify_patch" json:"verify_patch"`
	AllowIncomplete   bool     `yaml:"allow_incomplete" json:"allow_incomplete"`
	DryRun            bool     `yaml:"dry_run" json:"dry_run"`
	PatchCategories   []string `yaml:"patch_categories" json:"patch_categories"`
	ExcludeCategories []string `yaml:"exclude_categories" json:"exclude_categories"`
	HistoryFile       string   `yaml:"history_file" json:"history_file"`
	MetricsFile       string   `yaml:"metrics_file" json:"metrics_file"`

	baseDir string `yaml:"-"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

func Default() Config {
	return Config{
		LogLevel:          "INFO",
		LogFormat:         FormatText,
		VerifyPatch:       true,
		PatchCategories:   []string{},
		ExcludeCategories: []string{},
	}
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
