package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lkpatch/lkpatch/internal/hexdump"
	"github.com/lkpatch/lkpatch/internal/lkimage"
	"github.com/lkpatch/lkpatch/internal/naming"
)

const previewBytes = 64

func newPartitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "partitions IMAGE",
		Short: "List the partitions of an LK image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := lkimage.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, p := range img.Partitions() {
				fmt.Fprintf(w, "%2d. %-24s %10d bytes\n", i+1, p.Name(), p.Size())
			}
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info IMAGE PARTITION",
		Short: "Describe one partition and preview its data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := lkimage.Load(args[0])
			if err != nil {
				return err
			}
			p, err := findPartition(img, args[1])
			if err != nil {
				return err
			}

			data := p.Data()
			if len(data) > previewBytes {
				data = data[:previewBytes]
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, p.String())
			fmt.Fprintln(w)
			color.New(color.Bold).Fprintf(w, "First %d bytes:\n", len(data))
			fmt.Fprint(w, hexdump.Dump(p.DataOffset(), data, nil))
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "dump IMAGE PARTITION",
		Short: "Write one partition's data to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := lkimage.Load(args[0])
			if err != nil {
				return err
			}
			p, err := findPartition(img, args[1])
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = naming.PartitionPath(args[0], naming.SafeName(p.Name()))
			}
			if err := p.Save(outPath); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", p.Size(), outPath)
			return err
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default <image>_<partition>.bin)")

	return cmd
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract IMAGE DIR",
		Short: "Write every partition to DIR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := lkimage.Load(args[0])
			if err != nil {
				return err
			}
			logger := defaultLogger()

			written := 0
			for _, p := range img.Partitions() {
				path := filepath.Join(args[1], naming.SafeName(p.Name())+".bin")
				if err := p.Save(path); err != nil {
					logger.Error("failed to extract partition", "partition", p.Name(), "path", path, "error", err)
					continue
				}
				logger.Info("extracted partition", "partition", p.Name(), "path", path, "bytes", p.Size())
				written++
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "extracted %d of %d partitions to %s\n", written, len(img.Partitions()), args[1])
			return err
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Summarize the structure of an LK image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := lkimage.Load(args[0])
			if err != nil {
				return err
			}
			analysis := img.Analyze()
			w := cmd.OutOrStdout()

			switch format {
			case "", "text":
				fmt.Fprintf(w, "Image:      %s\n", analysis.ImagePath)
				fmt.Fprintf(w, "Size:       %d bytes\n", analysis.ImageSize)
				fmt.Fprintf(w, "Compressed: %t\n", analysis.Compressed)
				fmt.Fprintf(w, "Partitions: %d\n", analysis.PartitionCount)
				for _, p := range analysis.Partitions {
					fmt.Fprintf(w, "  %-24s %10d bytes  ext=%-5t addr=%s\n", p.Name, p.Size, p.HasExtHeader, p.MemoryAddress)
				}
				return nil
			case "json":
				data, err := json.MarshalIndent(analysis, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(data))
				return err
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")

	return cmd
}
