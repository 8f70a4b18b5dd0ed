package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/mqbundle/cli/output"
	"github.com/fluxbase-eu/mqbundle/cli/util"
	"github.com/fluxbase-eu/mqbundle/internal/config"
	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

var presetsCmd = &cobra.Command{
	Use:     "presets",
	Aliases: []string{"preset"},
	Short:   "Inspect the built-in build configurations",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in build configurations",
	Long: `List the built-in build configurations.

Examples:
  mqbundle presets list
  mqbundle presets list -o json`,
	Args: cobra.NoArgs,
	RunE: runPresetsList,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a built-in build configuration",
	Long: `Print the YAML source of a built-in build configuration, ready to be copied
into mqbundle.yaml and edited.

Examples:
  mqbundle presets show standalone-min > mqbundle.yaml`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.PresetNames(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runPresetsShow,
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsShowCmd)
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	names := config.PresetNames()
	data := output.TableData{
		Headers: []string{"NAME", "EXTERNAL", "STAGES", "DESCRIPTION"},
		Rows:    make([][]string, 0, len(names)),
	}

	for _, name := range names {
		build, err := config.LoadPreset(name, rootDir)
		if err != nil {
			return err
		}
		plan, err := pipeline.Compile(build)
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		source, err := config.PresetSource(name)
		if err != nil {
			return err
		}

		external := strings.Join(build.External, ",")
		if external == "" {
			external = "-"
		}
		data.Rows = append(data.Rows, []string{
			name,
			external,
			strings.Join(plan.TransformSet(), " "),
			util.TruncateString(leadingComment(source), 60),
		})
	}

	return GetFormatter().PrintTable(data)
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	source, err := config.PresetSource(args[0])
	if err != nil {
		return err
	}

	formatter := GetFormatter()
	if formatter.Structured() {
		build, err := config.LoadPreset(args[0], rootDir)
		if err != nil {
			return err
		}
		return formatter.Print(build)
	}
	if !formatter.Quiet {
		_, _ = formatter.Writer.Write(source)
	}
	return nil
}

// leadingComment returns the first "#" line of a YAML document
func leadingComment(source []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(source))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
		if line != "" {
			break
		}
	}
	return ""
}
