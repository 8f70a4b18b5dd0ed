package bundler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

// globalNamespace holds the virtual modules that stand in for iife externals
const globalNamespace = "mqbundle-global"

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// scriptFilter matches the modules the transform stage lowers
const scriptFilter = `\.(m?js|cjs|jsx|m?ts|cts|tsx)$`

func loaderFor(path string) api.Loader {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

// transformPlugin lowers every included, non-excluded module to the target
// before esbuild links it. Excluded modules fall through to the default loader
// and keep their syntax.
func (b *Bundler) transformPlugin(opts *pipeline.TransformOptions) api.Plugin {
	target := targets[opts.Target]
	sourcemap := b.build.Output.Sourcemap

	return api.Plugin{
		Name: "transform",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: scriptFilter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					rel := b.relPath(args.Path)
					if !matchesFilter(rel, opts.Include, opts.Exclude) {
						return api.OnLoadResult{}, nil
					}

					src, err := os.ReadFile(args.Path) //nolint:gosec // module path comes from esbuild's resolver
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("failed to read %s: %w", rel, err)
					}

					key := transformKey(args.Path, opts.Target, sourcemap, src)
					code, ok := b.cache.get(key)
					if !ok {
						tOpts := api.TransformOptions{
							Loader:     loaderFor(args.Path),
							Target:     target,
							Sourcefile: rel,
							LogLevel:   api.LogLevelSilent,
						}
						if sourcemap {
							tOpts.Sourcemap = api.SourceMapInline
						}
						result := api.Transform(string(src), tOpts)
						if len(result.Errors) > 0 {
							return api.OnLoadResult{Errors: toPluginMessages(result.Errors)}, nil
						}
						code = string(result.Code)
						b.cache.put(key, code)
					}

					return api.OnLoadResult{
						Contents:   &code,
						Loader:     api.LoaderJS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})
		},
	}
}

// matchesFilter applies include/exclude globs to a root-relative slash path.
func matchesFilter(rel string, include, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// progressPlugin observes every loaded module. It never supplies contents, so
// loading continues with the next plugin or the default loader.
func (b *Bundler) progressPlugin(p *progress) api.Plugin {
	return api.Plugin{
		Name: "progress",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				p.start()
				return api.OnStartResult{}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					name := args.Path
					if args.Namespace == "file" {
						name = b.relPath(args.Path)
					}
					p.loaded(name)
					return api.OnLoadResult{}, nil
				})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				p.finish(len(result.Errors) == 0)
				return api.OnEndResult{}, nil
			})
		},
	}
}

// globalsPlugin serves externals of an iife bundle from global variables.
func (b *Bundler) globalsPlugin(externals []string, globals map[string]string) api.Plugin {
	quoted := make([]string, 0, len(externals))
	for _, ext := range externals {
		quoted = append(quoted, regexp.QuoteMeta(ext))
	}
	filter := "^(" + strings.Join(quoted, "|") + ")(/.*)?$"

	return api.Plugin{
		Name: "globals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: globalNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: globalNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					name, ok := globals[args.Path]
					if !ok {
						name = guessGlobalName(args.Path)
						b.warnf("no name was provided for external module %q in output.globals, guessing %q", args.Path, name)
					}
					contents := fmt.Sprintf("module.exports = globalThis[%q];", name)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

// guessGlobalName turns a module id into a legal identifier: "lodash-es" becomes "lodashEs".
func guessGlobalName(id string) string {
	var b strings.Builder
	upper := false
	for _, r := range strings.TrimPrefix(id, "@") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			if upper && b.Len() > 0 {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			upper = false
			continue
		}
		upper = true
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}
