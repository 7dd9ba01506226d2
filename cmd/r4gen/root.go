package main

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "r4gen",
	Short: "r4gen - compile and inspect Tika-style media type registries",
	Long: `r4gen turns a Tika mime-types.xml document into a compiled media type
registry and lets you inspect or serialize the result.

compile reads the XML and writes a SQLite-backed registry; inspect prints
the rules attached to one or more media types.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
