package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxbase-eu/mqbundle/internal/config"
)

func stages(names ...string) []config.StageConfig {
	out := make([]config.StageConfig, 0, len(names))
	for _, n := range names {
		out = append(out, config.StageConfig{Name: n})
	}
	return out
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"css", KindCSS, true},
		{"css-only", KindCSS, true},
		{"babel", KindTransform, true},
		{" Transform ", KindTransform, true},
		{"node-resolve", KindResolve, true},
		{"terser", KindMinify, true},
		{"filesize", KindFilesize, true},
		{"progress", KindProgress, true},
		{"commonjs", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonical(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Presets(t *testing.T) {
	root := t.TempDir()
	for _, name := range config.PresetNames() {
		t.Run(name, func(t *testing.T) {
			build, err := config.LoadPreset(name, root)
			require.NoError(t, err)

			plan, err := Compile(build)
			require.NoError(t, err)

			assert.True(t, plan.Has(KindCSS))
			assert.True(t, plan.Has(KindTransform))
			assert.Equal(t, "bundle.css", plan.CSS().Output)
			assert.Equal(t, []string{"node_modules/**"}, plan.Transform().Exclude)

			// declared order survives compilation
			var declared []string
			for _, sc := range build.Plugins {
				if sc.IsEnabled() {
					declared = append(declared, sc.Name)
				}
			}
			var compiled []string
			for _, s := range plan.Stages {
				compiled = append(compiled, s.Name)
			}
			assert.Equal(t, declared, compiled)
		})
	}
}

func TestCompile_PresetVariants(t *testing.T) {
	root := t.TempDir()

	external, err := config.LoadPreset("external", root)
	require.NoError(t, err)
	externalPlan, err := Compile(external)
	require.NoError(t, err)
	assert.Nil(t, externalPlan.Resolve())

	standalone, err := config.LoadPreset("standalone", root)
	require.NoError(t, err)
	standalonePlan, err := Compile(standalone)
	require.NoError(t, err)
	require.NotNil(t, standalonePlan.Resolve())
	assert.True(t, standalonePlan.Resolve().Browser)

	minified, err := config.LoadPreset("standalone-min", root)
	require.NoError(t, err)
	minPlan, err := Compile(minified)
	require.NoError(t, err)
	assert.Nil(t, minPlan.Minify(), "disabled minify stage must not be planned")
	assert.Equal(t, standalonePlan.TransformSet(), minPlan.TransformSet())
}

func TestCompile_MinifyOnlyChangesMinify(t *testing.T) {
	build := &config.Build{Plugins: stages("css", "transform", "resolve", "filesize", "minify")}
	withMinify, err := Compile(build)
	require.NoError(t, err)

	off := false
	build.Plugins[4].Enabled = &off
	without, err := Compile(build)
	require.NoError(t, err)

	assert.Equal(t, []string{"css:bundle.css", "transform:es2015", "resolve", "filesize", "minify"}, withMinify.TransformSet())
	assert.Equal(t, []string{"css:bundle.css", "transform:es2015", "resolve", "filesize"}, without.TransformSet())
	assert.Equal(t, withMinify.TransformSet(), without.With(KindMinify).TransformSet())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		plugins []config.StageConfig
		want    error
	}{
		{"unknown stage", stages("css", "transform", "commonjs"), ErrUnknownStage},
		{"duplicate via alias", stages("css", "transform", "babel"), ErrDuplicateStage},
		{"missing css", stages("transform", "filesize"), ErrMissingStage},
		{"missing transform", stages("css"), ErrMissingStage},
		{"module stage after report", stages("css", "filesize", "transform"), ErrStageOrder},
		{"resolve after minify", stages("css", "transform", "minify", "resolve"), ErrStageOrder},
		{
			"unknown option",
			[]config.StageConfig{{Name: "css", Options: map[string]interface{}{"outputs": "a.css"}}, {Name: "transform"}},
			ErrStageOptions,
		},
		{
			"bad target",
			[]config.StageConfig{{Name: "css"}, {Name: "transform", Options: map[string]interface{}{"target": "es3"}}},
			ErrStageOptions,
		},
		{
			"es5 target",
			[]config.StageConfig{{Name: "css"}, {Name: "transform", Options: map[string]interface{}{"target": "es5"}}},
			ErrStageOptions,
		},
		{
			"bad glob",
			[]config.StageConfig{{Name: "css"}, {Name: "transform", Options: map[string]interface{}{"exclude": []interface{}{"node_modules/["}}}},
			ErrStageOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&config.Build{Plugins: tt.plugins})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCompile_UnknownStageListsKinds(t *testing.T) {
	_, err := Compile(&config.Build{Plugins: stages("css", "transform", "commonjs")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known: css, transform, resolve, minify, filesize, progress")
}

func TestCompile_TerminalOrderIsFree(t *testing.T) {
	plan, err := Compile(&config.Build{Plugins: stages("css", "babel", "filesize", "progress", "terser")})
	require.NoError(t, err)
	assert.Len(t, plan.Reports(), 2)
	assert.Equal(t, KindFilesize, plan.Reports()[0].Kind)
	assert.NotNil(t, plan.Minify())
}

func TestCompile_OptionDecoding(t *testing.T) {
	plan, err := Compile(&config.Build{Plugins: []config.StageConfig{
		{Name: "css", Options: map[string]interface{}{"output": "mathquill.css"}},
		{Name: "transform", Options: map[string]interface{}{"target": "es2017", "exclude": "node_modules/**"}},
		{Name: "resolve", Options: map[string]interface{}{"browser": "false", "extensions": []interface{}{".js", ".mjs"}}},
		{Name: "filesize", Options: map[string]interface{}{"show_brotli": true}},
		{Name: "progress", Options: map[string]interface{}{"clear_line": false}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "mathquill.css", plan.CSS().Output)
	assert.Equal(t, "es2017", plan.Transform().Target)
	assert.Equal(t, []string{"node_modules/**"}, plan.Transform().Exclude)
	assert.False(t, plan.Resolve().Browser)
	assert.Equal(t, []string{".js", ".mjs"}, plan.Resolve().Extensions)
	filesize, ok := plan.Stage(KindFilesize)
	require.True(t, ok)
	assert.True(t, filesize.Options.(*FilesizeOptions).ShowBrotli)
	assert.True(t, filesize.Options.(*FilesizeOptions).ShowGzipped)
	assert.False(t, plan.Progress().ClearLine)
	assert.Equal(t, ".mqbundle/progress.json", plan.Progress().StateFile)
}

func TestPlan_With(t *testing.T) {
	plan, err := Compile(&config.Build{Plugins: stages("css", "transform")})
	require.NoError(t, err)

	withMinify := plan.With(KindMinify)
	assert.False(t, plan.Has(KindMinify), "With must not mutate the receiver")
	assert.True(t, withMinify.Has(KindMinify))
	assert.Len(t, withMinify.With(KindMinify).Stages, 3)
}

func TestPhase(t *testing.T) {
	assert.False(t, PhaseCollect.Terminal())
	assert.False(t, PhaseResolve.Terminal())
	assert.True(t, PhaseFinalize.Terminal())
	assert.True(t, PhaseReport.Terminal())
	assert.Equal(t, "report", PhaseOf(KindProgress).String())
}
