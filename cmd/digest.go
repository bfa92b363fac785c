package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/arloliu/cellbin"
	"github.com/arloliu/cellbin/internal/hash"
)

func newDigestCommand(_ io.Reader, stdout, _ io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <binary-dir>",
		Short: "Print the xxHash64 digest of every binary file",
		Long: `
Prints one line per .bin file below the binary directory, sorted by path.
Two conversions of the same input print identical output.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			digests, err := cellbin.Digest(args[0])
			if err != nil {
				return err
			}

			for _, rel := range slices.Sorted(maps.Keys(digests)) {
				fmt.Fprintf(stdout, "%s  %s\n", hash.Format(digests[rel]), rel)
			}

			return nil
		},
	}
}
