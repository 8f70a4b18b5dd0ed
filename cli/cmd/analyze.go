package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/mqbundle/cli/bundler"
)

var analyzeDetails bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze what ends up in the bundle",
	Long: `Build in memory without writing any file and print which modules make up the
script bundle, which imports were left to the page, and which stylesheets
were collected.

Examples:
  mqbundle analyze --preset standalone
  mqbundle analyze --details
  mqbundle analyze -o json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeDetails, "details", false, "List every module instead of the ten largest")
	analyzeCmd.Flags().BoolVar(&buildMinify, "minify", false, "Analyze the minified bundle")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	b, err := newBundler(cmd)
	if err != nil {
		return err
	}

	result, err := b.Bundle(cmd.Context())
	if err != nil {
		return err
	}

	formatter := GetFormatter()
	if formatter.Structured() {
		return formatter.Print(result.Analysis)
	}
	if formatter.Quiet {
		return nil
	}
	bundler.DisplayAnalysis(formatter.Writer, result.Analysis, analyzeDetails)
	return nil
}
