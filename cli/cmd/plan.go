package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/mqbundle/cli/output"
	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

var planMinify bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the compiled stage plan",
	Long: `Validate the plugin list of a build configuration and print the stages that
will run, in order. Disabled stages are omitted.

Examples:
  mqbundle plan --preset standalone-min
  mqbundle plan --preset standalone-min --minify -o yaml`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planMinify, "minify", false, "Show the plan with the minify stage enabled")
}

func runPlan(cmd *cobra.Command, args []string) error {
	build, plan, err := loadBuild()
	if err != nil {
		return err
	}
	if planMinify {
		plan = plan.With(pipeline.KindMinify)
	}

	formatter := GetFormatter()
	if formatter.Structured() {
		return formatter.Print(map[string]interface{}{
			"input":         build.Input,
			"output":        build.Output.File,
			"format":        build.FormatValue(),
			"external":      build.External,
			"stages":        plan.Stages,
			"transform_set": plan.TransformSet(),
		})
	}

	data := output.TableData{
		Headers: []string{"#", "NAME", "KIND", "PHASE", "DESCRIPTOR"},
		Rows:    make([][]string, len(plan.Stages)),
	}
	for i, stage := range plan.Stages {
		data.Rows[i] = []string{
			strconv.Itoa(i + 1),
			stage.Name,
			string(stage.Kind),
			stage.Phase.String(),
			stage.Descriptor(),
		}
	}
	if err := formatter.PrintTable(data); err != nil {
		return err
	}

	if len(build.External) > 0 {
		formatter.PrintSuccess("\nExternal: " + strings.Join(build.External, ", "))
	}
	return nil
}
