// Command av1an is the CLI entry point for the av1an video encoding tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appVersion = "0.1.0"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "av1an",
		Short:         "Chunked, parallel AV1/AVC/HEVC video encoding",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newEncodeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "av1an version %s\n", appVersion)
			return nil
		},
	}
}
