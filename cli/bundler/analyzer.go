package bundler

import (
	"sort"
	"strings"

	"github.com/fluxbase-eu/mqbundle/internal/config"
)

// AnalysisResult contains the analyzed bundle information
type AnalysisResult struct {
	Output          string         `json:"output" yaml:"output"`
	TotalBytes      int            `json:"total_bytes" yaml:"total_bytes"`
	InputFiles      []FileAnalysis `json:"input_files" yaml:"input_files"`
	ExternalImports []string       `json:"external_imports" yaml:"external_imports"`
	Stylesheets     []string       `json:"stylesheets" yaml:"stylesheets"`
	Warnings        []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FileAnalysis contains analysis for a single file
type FileAnalysis struct {
	Path          string  `json:"path" yaml:"path"`
	Bytes         int     `json:"bytes" yaml:"bytes"`
	BytesInOutput int     `json:"bytes_in_output" yaml:"bytes_in_output"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
	ImportCount   int     `json:"import_count" yaml:"import_count"`
}

// Inlined reports whether any input path starts with prefix (for example "node_modules/jquery/").
func (r *AnalysisResult) Inlined(prefix string) bool {
	for _, f := range r.InputFiles {
		if strings.HasPrefix(f.Path, prefix) {
			return true
		}
	}
	return false
}

// analyzeMetafile breaks the script output down by input and collects the
// external references left in it.
func analyzeMetafile(meta *Metafile, build *config.Build) *AnalysisResult {
	result := &AnalysisResult{}

	if path, output, ok := meta.output(".js", ".mjs", ".cjs"); ok {
		result.Output = path
		result.TotalBytes = output.Bytes

		for _, imp := range output.Imports {
			if imp.External {
				result.ExternalImports = append(result.ExternalImports, imp.Path)
			}
		}

		for inputPath, contrib := range output.Inputs {
			if strings.HasPrefix(inputPath, globalNamespace+":") {
				result.ExternalImports = append(result.ExternalImports, strings.TrimPrefix(inputPath, globalNamespace+":"))
				continue
			}

			inputInfo, ok := meta.Inputs[inputPath]
			if !ok {
				continue
			}

			percentage := 0.0
			if result.TotalBytes > 0 {
				percentage = float64(contrib.BytesInOutput) / float64(result.TotalBytes) * 100
			}

			result.InputFiles = append(result.InputFiles, FileAnalysis{
				Path:          inputPath,
				Bytes:         inputInfo.Bytes,
				BytesInOutput: contrib.BytesInOutput,
				Percentage:    percentage,
				ImportCount:   len(inputInfo.Imports),
			})
		}
	}

	if _, css, ok := meta.output(".css"); ok {
		for inputPath := range css.Inputs {
			result.Stylesheets = append(result.Stylesheets, inputPath)
		}
	}

	result.Warnings = unresolvedWarnings(meta, build)

	// Sort by bytes in output (largest first)
	sort.Slice(result.InputFiles, func(i, j int) bool {
		if result.InputFiles[i].BytesInOutput != result.InputFiles[j].BytesInOutput {
			return result.InputFiles[i].BytesInOutput > result.InputFiles[j].BytesInOutput
		}
		return result.InputFiles[i].Path < result.InputFiles[j].Path
	})

	result.ExternalImports = dedupeSorted(result.ExternalImports)
	sort.Strings(result.Stylesheets)

	return result
}

// unresolvedWarnings reports bare imports that were left external without
// being declared external.
func unresolvedWarnings(meta *Metafile, build *config.Build) []string {
	seen := make(map[string]bool)
	var warnings []string
	for _, input := range meta.Inputs {
		for _, imp := range input.Imports {
			if cssImportKinds[imp.Kind] {
				continue
			}
			if !imp.External || !isBare(imp.Path) || build.IsExternal(imp.Path) || seen[imp.Path] {
				continue
			}
			seen[imp.Path] = true
			warnings = append(warnings, "unresolved import "+imp.Path+": treating it as external dependency")
		}
	}
	sort.Strings(warnings)
	return warnings
}

// url() and @import paths in stylesheets are relative even without a leading "./"
var cssImportKinds = map[string]bool{
	"url-token":     true,
	"import-rule":   true,
	"composes-from": true,
}

func isBare(specifier string) bool {
	if specifier == "" || strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		return false
	}
	if strings.Contains(specifier, ":") {
		// URLs, data: and node: style specifiers
		return false
	}
	return true
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
