package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"es", FormatES, false},
		{"ESM", FormatES, false},
		{"module", FormatES, false},
		{"", FormatES, false},
		{"cjs", FormatCJS, false},
		{"commonjs", FormatCJS, false},
		{"iife", FormatIIFE, false},
		{"umd", "", true},
		{"system", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_Validate(t *testing.T) {
	valid := func() Build {
		return Build{
			Input:    "src/index.js",
			Output:   OutputConfig{File: "dist/bundle.js", Format: "es"},
			External: []string{"jquery"},
			Plugins:  []StageConfig{{Name: "css"}, {Name: "transform"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(b *Build)
		errMsg string
	}{
		{name: "valid config", mutate: func(b *Build) {}},
		{name: "empty input", mutate: func(b *Build) { b.Input = " " }, errMsg: "input cannot be empty"},
		{name: "empty output", mutate: func(b *Build) { b.Output.File = "" }, errMsg: "output.file cannot be empty"},
		{name: "bad format", mutate: func(b *Build) { b.Output.Format = "amd" }, errMsg: "invalid output format"},
		{name: "bad name", mutate: func(b *Build) { b.Output.Name = "my-lib" }, errMsg: "not a valid identifier"},
		{
			name:   "globals without iife",
			mutate: func(b *Build) { b.Output.Globals = map[string]string{"jquery": "$"} },
			errMsg: "requires the iife format",
		},
		{
			name: "globals with iife",
			mutate: func(b *Build) {
				b.Output.Format = "iife"
				b.Output.Name = "MathField"
				b.Output.Globals = map[string]string{"jquery": "$"}
			},
		},
		{name: "duplicate external", mutate: func(b *Build) { b.External = []string{"jquery", "jquery"} }, errMsg: "listed twice"},
		{name: "empty external", mutate: func(b *Build) { b.External = []string{""} }, errMsg: "cannot be empty"},
		{name: "unnamed stage", mutate: func(b *Build) { b.Plugins = append(b.Plugins, StageConfig{}) }, errMsg: "plugins[2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(&b)
			err := b.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mqbundle.yaml")
	content := `
input: lib/main.js
output:
  file: out/field.js
  format: cjs
  sourcemap: true
external: [jquery, katex]
plugins:
  - name: css-only
    options:
      output: field.css
  - name: babel
  - name: terser
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	build, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lib/main.js", build.Input)
	assert.Equal(t, "out/field.js", build.Output.File)
	assert.Equal(t, FormatCJS, build.FormatValue())
	assert.True(t, build.Output.Sourcemap)
	assert.Equal(t, []string{"jquery", "katex"}, build.External)
	assert.Equal(t, dir, build.Root)

	require.Len(t, build.Plugins, 3)
	assert.Equal(t, "css-only", build.Plugins[0].Name)
	assert.Equal(t, "field.css", build.Plugins[0].Options["output"])
	assert.True(t, build.Plugins[1].IsEnabled())
	assert.False(t, build.Plugins[2].IsEnabled())
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mqbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins:\n  - name: css\n"), 0600))

	build, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "src/index.js", build.Input)
	assert.Equal(t, "dist/bundle.js", build.Output.File)
	assert.Equal(t, FormatES, build.FormatValue())
	assert.Empty(t, build.External)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mqbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: src/index.js\n"), 0600))

	t.Setenv("MQBUNDLE_OUTPUT_FILE", "build/override.js")

	build, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "build/override.js", build.Output.File)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mqbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: umd\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.True(t, errors.Is(err, ErrInvalidFormat))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"external", "standalone", "standalone-min"}, PresetNames())

	root := t.TempDir()

	external, err := LoadPreset("external", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"jquery"}, external.External)
	assert.Equal(t, root, external.Root)
	assert.Len(t, external.Plugins, 4)

	standalone, err := LoadPreset("standalone", root)
	require.NoError(t, err)
	assert.Empty(t, standalone.External)
	assert.Equal(t, "resolve", standalone.Plugins[2].Name)

	minified, err := LoadPreset("standalone-min", root)
	require.NoError(t, err)
	last := minified.Plugins[len(minified.Plugins)-1]
	assert.Equal(t, "minify", last.Name)
	assert.False(t, last.IsEnabled())

	_, err = LoadPreset("umd", root)
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestBuild_IsExternal(t *testing.T) {
	b := Build{External: []string{"jquery", "@mq/core"}}

	assert.True(t, b.IsExternal("jquery"))
	assert.True(t, b.IsExternal("jquery/dist/jquery.slim"))
	assert.True(t, b.IsExternal("@mq/core"))
	assert.False(t, b.IsExternal("jquery-ui"))
	assert.False(t, b.IsExternal("@mq/core-extra"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, LoadEnvFile(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MQBUNDLE_TEST_VALUE=loaded\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("MQBUNDLE_TEST_VALUE") })

	require.NoError(t, LoadEnvFile(dir))
	assert.Equal(t, "loaded", os.Getenv("MQBUNDLE_TEST_VALUE"))
}
