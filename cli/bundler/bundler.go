// Package bundler assembles one script bundle and one stylesheet from an entry
// module, following the stage plan of a build configuration.
package bundler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/mqbundle/internal/config"
	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

// assetExternals stay verbatim references, like url() targets in stylesheets.
var assetExternals = []string{
	"*.eot", "*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.svg", "*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp",
}

// ArtifactKind classifies build outputs
type ArtifactKind string

const (
	KindScript    ArtifactKind = "script"
	KindStyle     ArtifactKind = "style"
	KindSourceMap ArtifactKind = "sourcemap"
)

// Artifact is one output file
type Artifact struct {
	Path     string       `json:"path" yaml:"path"`
	Kind     ArtifactKind `json:"kind" yaml:"kind"`
	Contents []byte       `json:"-" yaml:"-"`
}

// Result is the outcome of a successful build
type Result struct {
	BuildID      string          `json:"build_id" yaml:"build_id"`
	Script       Artifact        `json:"script" yaml:"script"`
	Style        Artifact        `json:"style" yaml:"style"`
	SourceMaps   []Artifact      `json:"sourcemaps,omitempty" yaml:"sourcemaps,omitempty"`
	Analysis     *AnalysisResult `json:"analysis" yaml:"analysis"`
	Sizes        []SizeReport    `json:"sizes,omitempty" yaml:"sizes,omitempty"`
	Modules      int             `json:"modules" yaml:"modules"`
	Warnings     []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	TransformSet []string        `json:"transform_set" yaml:"transform_set"`
	Duration     time.Duration   `json:"duration" yaml:"duration"`

	progress *progress
}

// Artifacts lists every file the build produces, script first
func (r *Result) Artifacts() []Artifact {
	out := []Artifact{r.Script, r.Style}
	return append(out, r.SourceMaps...)
}

// Option configures a Bundler
type Option func(*Bundler)

// WithLogger replaces the default component logger
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bundler) { b.log = l }
}

// WithProgressWriter sets where the progress stage prints (default stderr)
func WithProgressWriter(w io.Writer) Option {
	return func(b *Bundler) { b.progressOut = w }
}

// WithCache shares a transform cache between bundlers
func WithCache(c *TransformCache) Option {
	return func(b *Bundler) { b.cache = c }
}

// Bundler runs the builds of one configuration. Builds must not overlap.
type Bundler struct {
	build       *config.Build
	plan        *pipeline.Plan
	log         zerolog.Logger
	progressOut io.Writer
	cache       *TransformCache

	warnMu   sync.Mutex
	warnings []string
}

// New creates a bundler for a validated configuration and its compiled plan.
func New(build *config.Build, plan *pipeline.Plan, opts ...Option) *Bundler {
	b := &Bundler{
		build:       build,
		plan:        plan,
		log:         log.With().Str("component", "bundler").Logger(),
		progressOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cache == nil {
		cache, err := NewTransformCache(DefaultCacheSize)
		if err != nil {
			b.log.Warn().Err(err).Msg("Transform cache disabled")
		}
		b.cache = cache
	}
	return b
}

// Plan returns the stage plan the bundler executes
func (b *Bundler) Plan() *pipeline.Plan {
	return b.plan
}

// Build bundles and writes the artifacts. A failed build writes nothing.
func (b *Bundler) Build(ctx context.Context) (*Result, error) {
	result, err := b.Bundle(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeArtifacts(result.Artifacts()); err != nil {
		return nil, err
	}
	if result.progress != nil {
		result.progress.save()
	}

	b.log.Info().
		Str("build_id", result.BuildID).
		Str("script", b.relPath(result.Script.Path)).
		Str("style", b.relPath(result.Style.Path)).
		Dur("duration", result.Duration).
		Msg("Bundle written")
	return result, nil
}

// Bundle runs the pipeline in memory and returns the artifacts without writing them.
func (b *Bundler) Bundle(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cssOpts := b.plan.CSS()
	if cssOpts == nil {
		return nil, fmt.Errorf("%w: %s", pipeline.ErrMissingStage, pipeline.KindCSS)
	}
	scriptPath := b.build.Abs(b.build.Output.File)
	stylePath := filepath.Join(filepath.Dir(scriptPath), cssOpts.Output)
	if stylePath == scriptPath {
		return nil, fmt.Errorf("stylesheet output %s collides with the script output", cssOpts.Output)
	}

	b.resetWarnings()
	buildID := uuid.NewString()
	logger := b.log.With().Str("build_id", buildID).Logger()

	var prog *progress
	if p := b.plan.Progress(); p != nil {
		prog = newProgress(b.progressOut, p.ClearLine, b.build.Abs(p.StateFile), logger)
	}

	opts := b.buildOptions(prog)
	logger.Debug().
		Str("entry", b.build.Input).
		Str("format", string(b.build.FormatValue())).
		Strs("external", b.build.External).
		Strs("stages", b.plan.TransformSet()).
		Msg("Starting build")

	start := time.Now()
	res := api.Build(opts)
	duration := time.Since(start)

	if len(res.Errors) > 0 {
		err := &BuildError{Messages: convertMessages(res.Errors)}
		logger.Error().Err(err).Msg("Build failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := parseMetafile(res.Metafile)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BuildID:      buildID,
		Script:       Artifact{Path: scriptPath, Kind: KindScript},
		Style:        Artifact{Path: stylePath, Kind: KindStyle, Contents: []byte{}},
		Modules:      len(meta.Inputs),
		TransformSet: b.plan.TransformSet(),
		Duration:     duration,
		progress:     prog,
	}
	if err := b.collectOutputs(res.OutputFiles, result); err != nil {
		return nil, err
	}

	result.Analysis = analyzeMetafile(meta, b.build)

	for _, m := range convertMessages(res.Warnings) {
		b.warnf("%s", m.String())
	}
	for _, w := range result.Analysis.Warnings {
		b.warnf("%s", w)
	}
	result.Warnings = b.takeWarnings()
	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}

	if err := b.runReports(result, logger); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Bundler) buildOptions(prog *progress) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:   []string{b.build.Abs(b.build.Input)},
		Outfile:       b.build.Abs(b.build.Output.File),
		Bundle:        true,
		Write:         false,
		Metafile:      true,
		AbsWorkingDir: b.build.Root,
		LogLevel:      api.LogLevelSilent,
		Platform:      api.PlatformBrowser,
		// Lowering happens per module in the transform stage; excluded
		// modules must come through untouched.
		Target:     api.ESNext,
		GlobalName: b.build.Output.Name,
		External:   append([]string(nil), assetExternals...),
		Packages:   api.PackagesExternal,
	}

	format := b.build.FormatValue()
	switch format {
	case config.FormatCJS:
		opts.Format = api.FormatCommonJS
	case config.FormatIIFE:
		opts.Format = api.FormatIIFE
	default:
		opts.Format = api.FormatESModule
	}

	var plugins []api.Plugin
	// The observer goes first: it never supplies contents, so every module
	// still reaches the stage that loads it.
	if prog != nil {
		plugins = append(plugins, b.progressPlugin(prog))
	}

	if format == config.FormatIIFE && len(b.build.External) > 0 {
		plugins = append(plugins, b.globalsPlugin(b.build.External, b.build.Output.Globals))
	} else {
		opts.External = append(opts.External, b.build.External...)
	}

	if b.plan.CSS() != nil {
		opts.Loader = map[string]api.Loader{".css": api.LoaderCSS}
	}
	transform := b.plan.Transform()
	if transform != nil {
		plugins = append(plugins, b.transformPlugin(transform))
	}
	if r := b.plan.Resolve(); r != nil {
		opts.Packages = api.PackagesBundle
		if r.Browser {
			opts.MainFields = []string{"browser", "module", "main"}
		} else {
			opts.MainFields = []string{"module", "main"}
		}
		if len(r.Extensions) > 0 {
			opts.ResolveExtensions = r.Extensions
		}
	}
	if m := b.plan.Minify(); m != nil {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = m.Mangle
		opts.KeepNames = m.KeepNames
		// Syntax minification runs at the link target and would turn lowered
		// code back into newer syntax.
		opts.MinifySyntax = transform == nil || transform.Target == "esnext"
	}

	if b.build.Output.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	opts.Plugins = plugins
	return opts
}

// collectOutputs sorts esbuild's output files into the script, the renamed
// stylesheet and their source maps.
func (b *Bundler) collectOutputs(files []api.OutputFile, result *Result) error {
	scriptMapPath := result.Script.Path + ".map"
	styleMapPath := result.Style.Path + ".map"
	foundScript := false

	for _, f := range files {
		switch {
		case strings.HasSuffix(f.Path, ".css.map"):
			result.SourceMaps = append(result.SourceMaps, Artifact{Path: styleMapPath, Kind: KindSourceMap, Contents: f.Contents})
		case strings.HasSuffix(f.Path, ".map"):
			result.SourceMaps = append(result.SourceMaps, Artifact{Path: scriptMapPath, Kind: KindSourceMap, Contents: f.Contents})
		case strings.HasSuffix(f.Path, ".css"):
			contents := f.Contents
			if oldBase, newBase := filepath.Base(f.Path), filepath.Base(result.Style.Path); oldBase != newBase {
				contents = bytes.ReplaceAll(contents,
					[]byte("sourceMappingURL="+oldBase+".map"),
					[]byte("sourceMappingURL="+newBase+".map"))
			}
			result.Style.Contents = contents
		default:
			result.Script.Contents = f.Contents
			foundScript = true
		}
	}

	if !foundScript {
		return fmt.Errorf("build produced no script output")
	}
	return nil
}

// runReports runs the report stages in declared order against the final artifacts.
func (b *Bundler) runReports(result *Result, logger zerolog.Logger) error {
	for _, stage := range b.plan.Reports() {
		switch o := stage.Options.(type) {
		case *pipeline.FilesizeOptions:
			for _, a := range []Artifact{result.Script, result.Style} {
				report, err := measure(a, b.relPath(a.Path), o)
				if err != nil {
					return err
				}
				result.Sizes = append(result.Sizes, report)
			}
		case *pipeline.ProgressOptions:
			logger.Info().Int("modules", result.Modules).Msg("Modules bundled")
		}
	}
	return nil
}

func (b *Bundler) relPath(p string) string {
	rel, err := filepath.Rel(b.build.Root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return filepath.ToSlash(rel)
}

func (b *Bundler) warnf(format string, args ...interface{}) {
	b.warnMu.Lock()
	defer b.warnMu.Unlock()
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *Bundler) resetWarnings() {
	b.warnMu.Lock()
	defer b.warnMu.Unlock()
	b.warnings = nil
}

func (b *Bundler) takeWarnings() []string {
	b.warnMu.Lock()
	defer b.warnMu.Unlock()
	out := b.warnings
	b.warnings = nil
	return out
}
