package bundler

import (
	"bytes"
	"fmt"

	"github.com/andybalholm/brotli"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzip"

	"github.com/fluxbase-eu/mqbundle/internal/pipeline"
)

// SizeReport describes one written artifact. Sizes that were not requested are -1.
type SizeReport struct {
	Path     string `json:"path" yaml:"path"`
	Kind     string `json:"kind" yaml:"kind"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
	Minified int    `json:"minified" yaml:"minified"`
	Gzipped  int    `json:"gzipped" yaml:"gzipped"`
	Brotli   int    `json:"brotli" yaml:"brotli"`
}

func measure(a Artifact, displayPath string, opts *pipeline.FilesizeOptions) (SizeReport, error) {
	report := SizeReport{
		Path:     displayPath,
		Kind:     string(a.Kind),
		Bytes:    len(a.Contents),
		Minified: -1,
		Gzipped:  -1,
		Brotli:   -1,
	}

	if opts.ShowMinified {
		n, err := minifiedSize(a)
		if err != nil {
			return report, err
		}
		report.Minified = n
	}
	if opts.ShowGzipped {
		n, err := gzipSize(a.Contents)
		if err != nil {
			return report, err
		}
		report.Gzipped = n
	}
	if opts.ShowBrotli {
		n, err := brotliSize(a.Contents)
		if err != nil {
			return report, err
		}
		report.Brotli = n
	}
	return report, nil
}

func minifiedSize(a Artifact) (int, error) {
	if len(a.Contents) == 0 {
		return 0, nil
	}
	loader := api.LoaderJS
	if a.Kind == KindStyle {
		loader = api.LoaderCSS
	}
	result := api.Transform(string(a.Contents), api.TransformOptions{
		Loader:            loader,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return 0, fmt.Errorf("failed to minify %s for size report: %w", a.Path, &BuildError{Messages: convertMessages(result.Errors)})
	}
	return len(result.Code), nil
}

func gzipSize(data []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(data); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func brotliSize(data []byte) (int, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := bw.Write(data); err != nil {
		return 0, err
	}
	if err := bw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
