package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lkpatch/lkpatch/internal/config"
	"github.com/lkpatch/lkpatch/internal/logging"
	"github.com/lkpatch/lkpatch/internal/patcher"
)

type patchFlags struct {
	configPath      string
	patchesPath     string
	outputPath      string
	reportPath      string
	logLevel        string
	backupDir       string
	dryRun          bool
	backup          bool
	allowIncomplete bool
	noVerify        bool
	categories      []string
	exclude         []string
}

func newPatchCmd() *cobra.Command {
	var flags patchFlags

	cmd := &cobra.Command{
		Use:   "patch IMAGE...",
		Short: "Apply the patch catalog to one or more LK images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && (flags.outputPath != "" || flags.reportPath != "") {
				return errors.New("--output and --report can only be used with a single image")
			}

			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return err
			}
			applyPatchFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			p := patcher.New(*cfg, logger)
			catalog, err := p.LoadCatalog(flags.patchesPath)
			if err != nil {
				return err
			}

			failed := 0
			var lastErr error
			for _, image := range args {
				res, err := p.Patch(catalog, patcher.Request{
					ImagePath:  image,
					OutputPath: flags.outputPath,
					ReportPath: flags.reportPath,
				})
				if res != nil {
					printSummary(cmd.OutOrStdout(), image, res)
				}
				if err != nil {
					logging.Critical(logger, "patching failed", "image", image, "error", err)
					failed++
					lastErr = err
				}
			}

			switch {
			case failed == 0:
				return nil
			case len(args) == 1:
				return lastErr
			default:
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to config file")
	f.StringVarP(&flags.patchesPath, "patches", "j", "", "Path to patch override file (JSON or YAML)")
	f.StringVarP(&flags.outputPath, "output", "o", "", "Output image path (single image only)")
	f.StringVar(&flags.reportPath, "report", "", "Report path (single image only)")
	f.StringVar(&flags.logLevel, "log-level", "", "Override log level: DEBUG|INFO|WARNING|ERROR|CRITICAL")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Show what would be patched without writing anything")
	f.BoolVar(&flags.backup, "backup", false, "Copy each input image before patching")
	f.StringVar(&flags.backupDir, "backup-dir", "", "Directory for backups (default next to the image)")
	f.BoolVar(&flags.allowIncomplete, "allow-incomplete", false, "Do not fail when no patch applies")
	f.BoolVar(&flags.noVerify, "no-verify", false, "Skip catalog validation")
	f.StringArrayVar(&flags.categories, "category", nil, "Only apply this category (repeatable)")
	f.StringArrayVar(&flags.exclude, "exclude", nil, "Skip this category (repeatable)")

	return cmd
}

// applyPatchFlags lets explicitly set flags override the config file.
func applyPatchFlags(cmd *cobra.Command, cfg *config.Config, flags patchFlags) {
	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if changed("backup") {
		cfg.Backup = flags.backup
	}
	if changed("backup-dir") {
		cfg.BackupDir = flags.backupDir
	}
	if changed("allow-incomplete") {
		cfg.AllowIncomplete = flags.allowIncomplete
	}
	if changed("no-verify") {
		cfg.VerifyPatch = !flags.noVerify
	}
	if changed("category") {
		cfg.PatchCategories = flags.categories
	}
	if changed("exclude") {
		cfg.ExcludeCategories = flags.exclude
	}
}

func printSummary(w io.Writer, image string, res *patcher.Result) {
	out := res.Outcome
	status := color.New(color.FgGreen, color.Bold)
	switch {
	case res.Report.DryRun:
		status = color.New(color.FgCyan, color.Bold)
	case out.Applied == 0:
		status = color.New(color.FgRed, color.Bold)
	case out.Skipped > 0:
		status = color.New(color.FgYellow, color.Bold)
	}

	label := "patched"
	if res.Report.DryRun {
		label = "dry run"
	}
	status.Fprintf(w, "%s: %s %d/%d\n", image, label, out.Applied, out.Total)

	for _, cat := range out.Categories {
		fmt.Fprintf(w, "  %-16s %d/%d\n", cat.Name, out.AppliedIn(cat.Name), len(cat.Entries))
	}
	if res.BackupPath != "" {
		fmt.Fprintf(w, "  backup: %s\n", res.BackupPath)
	}
	if res.Report.Output != "" {
		fmt.Fprintf(w, "  output: %s\n", res.Report.Output)
	}
}
