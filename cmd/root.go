// Package cmd implements the cellbin command line.
package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand returns the cellbin root command wired to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "cellbin",
		Short: "Convert spatial single-cell CSV tables into viewer binaries.",
		Long: `cellbin converts the coordinate, section, cell type and transcription
factor activity tables of a spatial single-cell dataset into compact
little-endian binary files plus a metadata.json descriptor.

Source tables may be plain CSV or gzip, zstd, s2 or lz4 compressed.
`,
		SilenceUsage: true,
	}

	rc.AddCommand(newConvertCommand(stdin, stdout, stderr))
	rc.AddCommand(newInspectCommand(stdin, stdout, stderr))
	rc.AddCommand(newDigestCommand(stdin, stdout, stderr))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)

	return rc
}
