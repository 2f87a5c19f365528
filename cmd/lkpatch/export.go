package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lkpatch/lkpatch/internal/config"
	"github.com/lkpatch/lkpatch/internal/rules"
)

func newExportConfigCmd() *cobra.Command {
	var patchesPath string

	cmd := &cobra.Command{
		Use:   "export-config FILE",
		Short: "Write the default configuration and the available patches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(patchesPath, false, defaultLogger())
			if err != nil {
				return err
			}
			if err := config.Save(args[0], config.Default(), catalog); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote config to %s\n", args[0])
			return err
		},
	}

	cmd.Flags().StringVarP(&patchesPath, "patches", "j", "", "Path to patch override file")

	return cmd
}

func newExportPatchesCmd() *cobra.Command {
	var patchesPath string

	cmd := &cobra.Command{
		Use:   "export-patches FILE",
		Short: "Write the patch catalog as an override document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(patchesPath, false, defaultLogger())
			if err != nil {
				return err
			}
			if err := rules.Export(args[0], catalog); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d patches in %d categories to %s\n", catalog.Len(), len(catalog.Categories()), args[0])
			return err
		},
	}

	cmd.Flags().StringVarP(&patchesPath, "patches", "j", "", "Path to patch override file")

	return cmd
}
