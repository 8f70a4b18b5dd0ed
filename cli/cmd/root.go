// Package cmd provides the Cobra commands for the mqbundle CLI.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxbase-eu/mqbundle/cli/output"
	"github.com/fluxbase-eu/mqbundle/cli/util"
	"github.com/fluxbase-eu/mqbundle/internal/config"
	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile    string
	presetName string
	rootDir    string
	outputFmt  string
	noHeaders  bool
	quiet      bool
	debug      bool

	formatter *output.Formatter
)

// DefaultConfigName is looked up in the root directory when neither
// --config nor --preset is given.
const DefaultConfigName = "mqbundle.yaml"

// DefaultPreset is used when no configuration file exists
const DefaultPreset = "external"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mqbundle",
	Short: "mqbundle - bundle a math editor library for the browser",
	Long: `mqbundle assembles one script bundle and one stylesheet from an entry module,
running an ordered stage plan: css collection, syntax lowering, dependency
resolution, minification and size reporting.

Get started:
  mqbundle presets list           Show the built-in build configurations
  mqbundle build --preset external
  mqbundle build --config mqbundle.yaml --minify`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silence errors only when --quiet is used
		cmd.SilenceErrors = quiet
		setupLogging()

		format, err := output.ParseFormat(outputFmt)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, noHeaders, quiet)
		formatter.Writer = cmd.OutOrStdout()
		formatter.ErrWriter = cmd.ErrOrStderr()

		if err := config.LoadEnvFile(rootDir); err != nil {
			log.Debug().Err(err).Msg("Skipping .env file")
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"build configuration file (default is ./"+DefaultConfigName+" if present)")
	rootCmd.PersistentFlags().StringVarP(&presetName, "preset", "p", "",
		"built-in build configuration (default \""+DefaultPreset+"\" when no config file is found)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".",
		"project root for presets and .env files")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"hide table headers")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"minimal output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(contractCmd)
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !util.IsTerminal()})

	env := viper.New()
	env.SetEnvPrefix(config.EnvPrefix)
	_ = env.BindEnv("debug") // MQBUNDLE_DEBUG

	switch {
	case debug || env.GetBool("debug"):
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadBuild resolves the build configuration from --config, --preset or the
// default config file in the root directory, and compiles its stage plan.
func loadBuild() (*config.Build, *pipeline.Plan, error) {
	if cfgFile != "" && presetName != "" {
		return nil, nil, errors.New("--config and --preset are mutually exclusive")
	}

	var (
		build *config.Build
		err   error
	)
	switch {
	case cfgFile != "":
		build, err = config.Load(cfgFile)
	case presetName != "":
		build, err = config.LoadPreset(presetName, rootDir)
	default:
		defaultPath := filepath.Join(rootDir, DefaultConfigName)
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			build, err = config.Load(defaultPath)
		} else {
			log.Debug().Str("preset", DefaultPreset).Msg("No config file found, using preset")
			build, err = config.LoadPreset(DefaultPreset, rootDir)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	plan, err := pipeline.Compile(build)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid plugin list: %w", err)
	}
	return build, plan, nil
}

// GetFormatter returns the output formatter (for use by subcommands)
func GetFormatter() *output.Formatter {
	if formatter == nil {
		format, _ := output.ParseFormat(outputFmt)
		formatter = output.NewFormatter(format, noHeaders, quiet)
	}
	return formatter
}
