package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombrisland/r4/pkg/compiler"
	"github.com/tombrisland/r4/pkg/registry"
)

var (
	compileOverridesPath string
	compileOutputPath    string
)

var compileCmd = &cobra.Command{
	Use:   "compile <mime-types.xml>",
	Short: "Compile a Tika mime-types XML document into a registry database",
	Long: `compile walks a Tika-format mime-types.xml document, building the media
type hierarchy, glob rules, and magic byte rules, then writes the result to a
SQLite database that the detection engine loads at startup.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&compileOverridesPath, "overrides", "", "Path to a YAML overlay of additional glob/magic rules")
	compileCmd.Flags().StringVar(&compileOutputPath, "out", "registry.db", "Path to write the compiled registry database")
}

func runCompile(cmd *cobra.Command, args []string) error {
	xmlPath := args[0]

	reg, err := compiler.CompileFile(xmlPath)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", xmlPath, err)
	}

	if compileOverridesPath != "" {
		if err := compiler.LoadOverrides(reg, compileOverridesPath); err != nil {
			return fmt.Errorf("applying overrides from %s: %w", compileOverridesPath, err)
		}
	}

	store, err := registry.New(registry.Config{Path: compileOutputPath})
	if err != nil {
		return fmt.Errorf("opening %s: %w", compileOutputPath, err)
	}
	defer store.Close()

	if err := store.Save(reg); err != nil {
		return fmt.Errorf("writing %s: %w", compileOutputPath, err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "compiled %d media types (%d magic rules, %d glob rules) into %s\n",
			len(reg.RulesByType), len(reg.MagicRules), len(reg.GlobRules), compileOutputPath)
	}
	return nil
}
