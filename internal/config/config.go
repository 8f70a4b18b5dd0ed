// Package config loads and validates bundle build configurations.
package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides (MQBUNDLE_OUTPUT_FILE, ...).
const EnvPrefix = "MQBUNDLE"

var (
	// ErrUnknownPreset is returned when a preset name has no embedded definition.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrInvalidFormat is returned for output formats the assembler cannot emit.
	ErrInvalidFormat = errors.New("invalid output format")
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Build represents one bundle build configuration.
type Build struct {
	Input    string        `mapstructure:"input" yaml:"input" json:"input"`
	Output   OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	External []string      `mapstructure:"external" yaml:"external" json:"external"`
	Plugins  []StageConfig `mapstructure:"plugins" yaml:"plugins" json:"plugins"`

	// Root is the project directory every relative path is resolved against.
	Root string `mapstructure:"-" yaml:"-" json:"root"`
}

// OutputConfig describes the script artifact
type OutputConfig struct {
	File      string            `mapstructure:"file" yaml:"file" json:"file"`
	Format    string            `mapstructure:"format" yaml:"format" json:"format"`
	Name      string            `mapstructure:"name" yaml:"name,omitempty" json:"name,omitempty"`
	Sourcemap bool              `mapstructure:"sourcemap" yaml:"sourcemap" json:"sourcemap"`
	Globals   map[string]string `mapstructure:"globals" yaml:"globals,omitempty" json:"globals,omitempty"`
}

// StageConfig is one entry of the ordered plugin list.
// A stage with Enabled set to false is kept in the file but left out of the build.
type StageConfig struct {
	Name    string                 `mapstructure:"name" yaml:"name" json:"name"`
	Enabled *bool                  `mapstructure:"enabled" yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Options map[string]interface{} `mapstructure:"options" yaml:"options,omitempty" json:"options,omitempty"`
}

// IsEnabled reports whether the stage takes part in the build
func (s StageConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Format is a normalized output module format
type Format string

const (
	FormatES   Format = "es"
	FormatCJS  Format = "cjs"
	FormatIIFE Format = "iife"
)

// ParseFormat normalizes a rollup-style format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "es", "esm", "module", "":
		return FormatES, nil
	case "cjs", "commonjs":
		return FormatCJS, nil
	case "iife":
		return FormatIIFE, nil
	default:
		return "", fmt.Errorf("%w: %s (valid: es, cjs, iife)", ErrInvalidFormat, s)
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// Load reads a build configuration file. The file's directory becomes the build root.
func Load(path string) (*Build, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	v := newViper()
	v.SetConfigFile(abs)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	log.Debug().Str("file", v.ConfigFileUsed()).Msg("Config file loaded")

	return decode(v, filepath.Dir(abs))
}

// LoadPreset returns one of the embedded build presets rooted at root.
func LoadPreset(name, root string) (*Build, error) {
	data, err := PresetSource(name)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading preset %s: %w", name, err)
	}
	return decode(v, abs)
}

// PresetSource returns the raw YAML of a preset
func PresetSource(name string) ([]byte, error) {
	data, err := presetFS.ReadFile("presets/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
	}
	return data, nil
}

// PresetNames lists embedded presets in alphabetical order
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadEnvFile loads environment variables from a .env file in dir, if present.
func LoadEnvFile(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		location := filepath.Join(dir, name)
		if _, err := os.Stat(location); err != nil {
			continue
		}
		if err := godotenv.Load(location); err != nil {
			return fmt.Errorf("error loading .env file from %s: %w", location, err)
		}
		log.Debug().Str("file", location).Msg(".env file loaded")
		return nil
	}
	return fmt.Errorf("no .env file found")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "src/index.js")
	v.SetDefault("output.file", "dist/bundle.js")
	v.SetDefault("output.format", "es")
	v.SetDefault("output.name", "")
	v.SetDefault("output.sourcemap", false)
	v.SetDefault("external", []string{})
}

func decode(v *viper.Viper, root string) (*Build, error) {
	var build Build
	if err := v.Unmarshal(&build); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	build.Root = root

	if err := build.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &build, nil
}

// Validate validates the configuration record. Stage semantics are checked by the pipeline planner.
func (b *Build) Validate() error {
	if strings.TrimSpace(b.Input) == "" {
		return fmt.Errorf("input cannot be empty")
	}
	if strings.TrimSpace(b.Output.File) == "" {
		return fmt.Errorf("output.file cannot be empty")
	}

	format, err := ParseFormat(b.Output.Format)
	if err != nil {
		return err
	}
	if b.Output.Name != "" && !identifierRe.MatchString(b.Output.Name) {
		return fmt.Errorf("output.name %q is not a valid identifier", b.Output.Name)
	}
	if len(b.Output.Globals) > 0 && format != FormatIIFE {
		return fmt.Errorf("output.globals requires the iife format, got %s", format)
	}
	for mod, global := range b.Output.Globals {
		if !identifierRe.MatchString(global) {
			return fmt.Errorf("global %q for module %s is not a valid identifier", global, mod)
		}
	}

	seen := make(map[string]bool, len(b.External))
	for _, ext := range b.External {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("external module names cannot be empty")
		}
		if seen[ext] {
			return fmt.Errorf("external module %s is listed twice", ext)
		}
		seen[ext] = true
	}

	for i, stage := range b.Plugins {
		if strings.TrimSpace(stage.Name) == "" {
			return fmt.Errorf("plugins[%d]: name cannot be empty", i)
		}
	}

	return nil
}

// FormatValue returns the normalized output format. Validate must have succeeded.
func (b *Build) FormatValue() Format {
	f, _ := ParseFormat(b.Output.Format)
	return f
}

// Abs resolves a configuration path against the build root
func (b *Build) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.Root, path)
}

// IsExternal reports whether a module specifier is declared external.
// Deep imports ("jquery/dist/jquery.slim") match their package entry.
func (b *Build) IsExternal(specifier string) bool {
	for _, ext := range b.External {
		if specifier == ext || strings.HasPrefix(specifier, ext+"/") {
			return true
		}
	}
	return false
}
