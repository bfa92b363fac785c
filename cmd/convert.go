package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arloliu/cellbin/convert"
)

func newConvertCommand(_ io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <data-dir>",
		Short: "Convert the tables in a data directory",
		Long: `
Reads coordinates.csv, section.csv, celltype.csv and tf_activity.csv from the
data directory and writes the binary outputs to <data-dir>/binary.

Only an unusable coordinate table or a failed write of the base outputs is
fatal. Missing label tables, a missing feature table and failed feature
batches are logged and skipped.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			logger := convert.NewLogger(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
			cfg, err := convert.NewConfig(args[0], convert.WithLogger(logger))
			if err != nil {
				return err
			}

			report, err := convert.Run(c.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "cells:       %d\n", report.TotalCells)
			fmt.Fprintf(stdout, "duplicates:  %d\n", len(report.Duplicates))
			fmt.Fprintf(stdout, "tfs:         %d declared, %d processed, %d written\n",
				report.TFs.Inventory.TotalFeatures, report.TFs.Inventory.FeaturesProcessed, report.TFs.Written)
			fmt.Fprintf(stdout, "genes:       %d\n", report.Metadata.Genes.Total)
			fmt.Fprintf(stdout, "output:      %s\n", report.BinaryDir)

			return nil
		},
	}
}
