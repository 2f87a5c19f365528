package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lkpatch/lkpatch/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	fd := os.Stdout.Fd()
	color.NoColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)

	root := &cobra.Command{
		Use:          "lkpatch",
		Short:        "Patch MediaTek LK bootloader images",
		SilenceUsage: true,
	}

	root.AddCommand(newPatchCmd())
	root.AddCommand(newPartitionsCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newExportConfigCmd())
	root.AddCommand(newExportPatchesCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	var configPath string
	var patchesPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file and the patch catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			catalog, err := loadCatalog(patchesPath, true, logger)
			if err != nil {
				return err
			}
			for _, name := range cfg.UnknownCategories(catalog) {
				logger.Warn("category filter names an unknown category", "category", name)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "config ok"); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&patchesPath, "patches", "j", "", "Path to patch override file")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s buildDate=%s\n", version, commit, buildDate)
		},
	}
}
