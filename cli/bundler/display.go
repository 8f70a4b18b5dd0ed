package bundler

import (
	"fmt"
	"io"
	"strings"

	"github.com/fluxbase-eu/mqbundle/cli/util"
)

// DisplayAnalysis prints the bundle analysis in a formatted way
func DisplayAnalysis(w io.Writer, result *AnalysisResult, showDetails bool) {
	_, _ = fmt.Fprintf(w, "\n=== Bundle Analysis: %s ===\n", result.Output)
	_, _ = fmt.Fprintf(w, "Total bundle size: %s\n", util.FormatBytes(result.TotalBytes))

	if len(result.ExternalImports) > 0 {
		_, _ = fmt.Fprintln(w, "\nExternal dependencies (provided by the page):")
		for _, imp := range result.ExternalImports {
			_, _ = fmt.Fprintf(w, "  - %s\n", imp)
		}
	}

	if len(result.InputFiles) > 0 {
		_, _ = fmt.Fprintln(w, "\nBundle breakdown:")

		maxFiles := 10
		if showDetails || len(result.InputFiles) < maxFiles {
			maxFiles = len(result.InputFiles)
		}

		maxPathLen := 0
		for _, file := range result.InputFiles[:maxFiles] {
			if n := len(truncatePath(file.Path, 50)); n > maxPathLen {
				maxPathLen = n
			}
		}

		for _, file := range result.InputFiles[:maxFiles] {
			displayPath := truncatePath(file.Path, 50)
			padding := strings.Repeat(" ", maxPathLen-len(displayPath))
			_, _ = fmt.Fprintf(w, "  %s%s  %9s  %5.1f%%\n",
				displayPath,
				padding,
				util.FormatBytes(file.BytesInOutput),
				file.Percentage,
			)
		}
		if remaining := len(result.InputFiles) - maxFiles; remaining > 0 {
			_, _ = fmt.Fprintf(w, "  ... and %d more files\n", remaining)
		}
	}

	if len(result.Stylesheets) > 0 {
		_, _ = fmt.Fprintln(w, "\nStylesheets:")
		for _, s := range result.Stylesheets {
			_, _ = fmt.Fprintf(w, "  - %s\n", s)
		}
	}

	if len(result.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range result.Warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warn)
		}
	}

	_, _ = fmt.Fprintln(w)
}

// DisplaySizes prints the filesize report of a build
func DisplaySizes(w io.Writer, reports []SizeReport) {
	if len(reports) == 0 {
		return
	}

	maxPathLen := 4 // "FILE"
	for _, r := range reports {
		if n := len(truncatePath(r.Path, 50)); n > maxPathLen {
			maxPathLen = n
		}
	}

	_, _ = fmt.Fprintf(w, "FILE%s  %9s  %9s  %9s  %9s\n",
		strings.Repeat(" ", maxPathLen-4), "SIZE", "MINIFIED", "GZIPPED", "BROTLI")
	for _, r := range reports {
		p := truncatePath(r.Path, 50)
		_, _ = fmt.Fprintf(w, "%s%s  %9s  %9s  %9s  %9s\n",
			p,
			strings.Repeat(" ", maxPathLen-len(p)),
			util.FormatBytes(r.Bytes),
			util.FormatBytes(r.Minified),
			util.FormatBytes(r.Gzipped),
			util.FormatBytes(r.Brotli),
		)
	}
}

// truncatePath shortens a path if it's too long
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
