package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/mqbundle/cli/bundler"
	"github.com/fluxbase-eu/mqbundle/cli/output"
	"github.com/fluxbase-eu/mqbundle/cli/util"
	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

var (
	buildMinify  bool
	buildWatch   bool
	buildAnalyze bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the script bundle and stylesheet",
	Long: `Run the stage plan of a build configuration and write the script bundle and
the stylesheet next to it. A failed build writes nothing.

Examples:
  mqbundle build
  mqbundle build --preset standalone --minify
  mqbundle build --config mqbundle.yaml --watch
  mqbundle build --analyze -o json`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildMinify, "minify", false, "Enable the minify stage even if the configuration disables it")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild when source files change")
	buildCmd.Flags().BoolVar(&buildAnalyze, "analyze", false, "Print the per-module size breakdown")
}

func newBundler(cmd *cobra.Command) (*bundler.Bundler, error) {
	build, plan, err := loadBuild()
	if err != nil {
		return nil, err
	}
	if buildMinify {
		plan = plan.With(pipeline.KindMinify)
	}

	progressOut := cmd.ErrOrStderr()
	if quiet || GetFormatter().Structured() {
		progressOut = io.Discard
	}
	return bundler.New(build, plan,
		bundler.WithLogger(log.With().Str("component", "bundler").Logger()),
		bundler.WithProgressWriter(progressOut),
	), nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	b, err := newBundler(cmd)
	if err != nil {
		return err
	}

	if buildWatch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().Msg("Watching for changes, press Ctrl+C to stop")
		return b.Watch(ctx, func(result *bundler.Result, err error) {
			if err == nil {
				_ = printBuildResult(GetFormatter(), result)
			}
		})
	}

	result, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}
	return printBuildResult(GetFormatter(), result)
}

func printBuildResult(f *output.Formatter, result *bundler.Result) error {
	if f.Structured() {
		return f.Print(result)
	}

	for _, w := range result.Warnings {
		f.PrintWarning(w)
	}
	if f.Quiet {
		return nil
	}

	if len(result.Sizes) > 0 {
		bundler.DisplaySizes(f.Writer, result.Sizes)
	}
	if buildAnalyze {
		bundler.DisplayAnalysis(f.Writer, result.Analysis, true)
	}
	f.PrintSuccess(fmt.Sprintf("Bundled %s in %s",
		util.Plural(result.Modules, "module"), util.FormatDuration(result.Duration)))
	return nil
}
