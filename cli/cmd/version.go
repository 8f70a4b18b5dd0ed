package cmd

import (
	"runtime"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/mqbundle/cli/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version information",
	Long:  `Display the version, commit hash, build date and bundler engine version of mqbundle.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return GetFormatter().PrintTable(output.TableData{
			Headers: []string{"COMPONENT", "VERSION"},
			Rows: [][]string{
				{"mqbundle", Version},
				{"commit", Commit},
				{"build_date", BuildDate},
				{"esbuild", moduleVersion("github.com/evanw/esbuild")},
				{"go", runtime.Version()},
			},
		})
	},
}

// moduleVersion reports the version of a dependency linked into the binary.
func moduleVersion(path string) string {
	info, ok := rtdebug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return "unknown"
}
