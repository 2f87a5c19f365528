package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lkpatch/lkpatch/internal/config"
	"github.com/lkpatch/lkpatch/internal/report"
)

func newReportCmd() *cobra.Command {
	var inputPath string
	var configPath string
	var since string
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" && configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				inputPath = cfg.HistoryFile
			}
			if inputPath == "" {
				return errors.New("input path is required (--in, or a config with history_file)")
			}

			reader := report.Reader{}
			if since != "" {
				dur, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid since duration: %w", err)
				}
				reader.Since = time.Now().Add(-dur)
			}

			reports, err := reader.Read(inputPath)
			if err != nil {
				return err
			}

			summary := report.Summarize(reports)
			switch format {
			case "", "text":
				return report.WriteOutput(outPath, []byte(report.RenderText(summary)))
			case "md":
				return report.WriteOutput(outPath, []byte(report.RenderMarkdown(summary)))
			case "json":
				data, err := report.RenderJSON(summary)
				if err != nil {
					return err
				}
				return report.WriteOutput(outPath, data)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "Path to run history JSONL")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Read history_file from this config when --in is not set")
	cmd.Flags().StringVar(&since, "since", "", "Only include runs newer than this duration (e.g. 24h)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|md|json")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default stdout)")

	return cmd
}
