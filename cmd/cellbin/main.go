/*
This is the entrypoint for the cellbin binary.
*/
package main

import (
	"os"

	"github.com/arloliu/cellbin/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
