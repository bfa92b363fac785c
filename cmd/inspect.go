package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arloliu/cellbin"
)

// inspectRows is the number of records printed by inspect.
const inspectRows = 10

func newInspectCommand(_ io.Reader, stdout, _ io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.bin>",
		Short: "Print the record count and first records of a binary file",
		Long: `
Decodes a cellbin output file and prints its record count followed by the
first records. The layout is inferred from the file name: coordinates.bin,
the string columns under base/ and sparse features under tfs/.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			in, err := cellbin.Inspect(args[0], inspectRows)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "%s: %s, %d records\n", in.Path, in.Kind, in.Count)
			for _, row := range in.Rows {
				fmt.Fprintln(stdout, row)
			}
			if in.Count > len(in.Rows) {
				fmt.Fprintf(stdout, "... %d more\n", in.Count-len(in.Rows))
			}

			return nil
		},
	}
}
