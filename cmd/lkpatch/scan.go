package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lkpatch/lkpatch/internal/hexdump"
	"github.com/lkpatch/lkpatch/internal/lkimage"
	"github.com/lkpatch/lkpatch/internal/rules"
)

func newScanCmd() *cobra.Command {
	var patchesPath string

	cmd := &cobra.Command{
		Use:   "scan IMAGE",
		Short: "Show which catalog needles occur in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(patchesPath, true, defaultLogger())
			if err != nil {
				return err
			}
			img, err := lkimage.Load(args[0])
			if err != nil {
				return err
			}
			hits, err := rules.Scan(catalog, img.Contents())
			if err != nil {
				return err
			}

			found := color.New(color.FgGreen)
			missing := color.New(color.FgRed)
			w := cmd.OutOrStdout()
			matched := 0
			for _, hit := range hits {
				if len(hit.Offsets) == 0 {
					missing.Fprintf(w, "  missing %-14s %s\n", hit.Category, hit.Needle)
					continue
				}
				matched++
				found.Fprintf(w, "  found   %-14s %s", hit.Category, hit.Needle)
				for _, off := range hit.Offsets {
					fmt.Fprintf(w, " 0x%08x", off)
				}
				fmt.Fprintln(w)
			}
			_, err = fmt.Fprintf(w, "%d of %d needles found\n", matched, len(hits))
			return err
		},
	}

	cmd.Flags().StringVarP(&patchesPath, "patches", "j", "", "Path to patch override file")

	return cmd
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff A B",
		Short: "Hexdump the rows that differ between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			rows := hexdump.Diff(a, b)
			w := cmd.OutOrStdout()
			if len(rows) == 0 {
				_, err := fmt.Fprintln(w, "files are identical")
				return err
			}
			fmt.Fprint(w, hexdump.RenderDiff(a, b))
			_, err = fmt.Fprintf(w, "%d differing rows\n", len(rows))
			return err
		},
	}
}
