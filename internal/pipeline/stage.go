// Package pipeline compiles the declared plugin list of a build configuration
// into an ordered, validated stage plan.
package pipeline

import (
	"fmt"
	"strings"
)

// Kind identifies a stage implementation
type Kind string

const (
	KindCSS       Kind = "css"
	KindTransform Kind = "transform"
	KindResolve   Kind = "resolve"
	KindMinify    Kind = "minify"
	KindFilesize  Kind = "filesize"
	KindProgress  Kind = "progress"
)

// Phase is the point in a build at which a stage acts.
type Phase int

const (
	PhaseCollect Phase = iota
	PhaseTransform
	PhaseResolve
	PhaseFinalize
	PhaseReport
)

func (p Phase) String() string {
	switch p {
	case PhaseCollect:
		return "collect"
	case PhaseTransform:
		return "transform"
	case PhaseResolve:
		return "resolve"
	case PhaseFinalize:
		return "finalize"
	case PhaseReport:
		return "report"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether the phase observes or rewrites the finished artifact.
func (p Phase) Terminal() bool {
	return p == PhaseFinalize || p == PhaseReport
}

type kindInfo struct {
	phase      Phase
	aliases    []string
	newOptions func() interface{}
}

var kinds = map[Kind]kindInfo{
	KindCSS: {
		phase:      PhaseCollect,
		aliases:    []string{"css-only"},
		newOptions: func() interface{} { return &CSSOptions{Output: "bundle.css"} },
	},
	KindTransform: {
		phase:      PhaseTransform,
		aliases:    []string{"babel"},
		newOptions: func() interface{} { return &TransformOptions{Target: "es2015"} },
	},
	KindResolve: {
		phase:      PhaseResolve,
		aliases:    []string{"node-resolve"},
		newOptions: func() interface{} { return &ResolveOptions{Browser: true} },
	},
	KindMinify: {
		phase:      PhaseFinalize,
		aliases:    []string{"terser"},
		newOptions: func() interface{} { return &MinifyOptions{Mangle: true} },
	},
	KindFilesize: {
		phase:      PhaseReport,
		newOptions: func() interface{} { return &FilesizeOptions{ShowGzipped: true, ShowMinified: true} },
	},
	KindProgress: {
		phase:      PhaseReport,
		newOptions: func() interface{} { return &ProgressOptions{ClearLine: true, StateFile: ".mqbundle/progress.json"} },
	},
}

// Kinds lists every stage kind in phase order
func Kinds() []Kind {
	return []Kind{KindCSS, KindTransform, KindResolve, KindMinify, KindFilesize, KindProgress}
}

// Canonical maps a declared stage name (or alias) to its kind.
func Canonical(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := kinds[Kind(name)]; ok {
		return Kind(name), true
	}
	for k, info := range kinds {
		for _, alias := range info.aliases {
			if alias == name {
				return k, true
			}
		}
	}
	return "", false
}

// PhaseOf returns the phase a kind runs in
func PhaseOf(k Kind) Phase {
	return kinds[k].phase
}

// CSSOptions configures stylesheet extraction
type CSSOptions struct {
	Output string `mapstructure:"output" json:"output" yaml:"output"`
}

// TransformOptions configures syntax lowering
type TransformOptions struct {
	Target  string   `mapstructure:"target" json:"target" yaml:"target"`
	Include []string `mapstructure:"include" json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// ResolveOptions configures third-party module resolution
type ResolveOptions struct {
	Browser    bool     `mapstructure:"browser" json:"browser" yaml:"browser"`
	Extensions []string `mapstructure:"extensions" json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// MinifyOptions configures output minification
type MinifyOptions struct {
	Mangle    bool `mapstructure:"mangle" json:"mangle" yaml:"mangle"`
	KeepNames bool `mapstructure:"keep_names" json:"keep_names" yaml:"keep_names"`
}

// FilesizeOptions configures the size report
type FilesizeOptions struct {
	ShowGzipped  bool `mapstructure:"show_gzipped" json:"show_gzipped" yaml:"show_gzipped"`
	ShowBrotli   bool `mapstructure:"show_brotli" json:"show_brotli" yaml:"show_brotli"`
	ShowMinified bool `mapstructure:"show_minified" json:"show_minified" yaml:"show_minified"`
}

// ProgressOptions configures module load progress output
type ProgressOptions struct {
	ClearLine bool   `mapstructure:"clear_line" json:"clear_line" yaml:"clear_line"`
	StateFile string `mapstructure:"state_file" json:"state_file" yaml:"state_file"`
}

// Stage is one enabled entry of a compiled plan.
type Stage struct {
	// Name is the name as declared in the configuration (may be an alias).
	Name    string      `json:"name" yaml:"name"`
	Kind    Kind        `json:"kind" yaml:"kind"`
	Phase   Phase       `json:"-" yaml:"-"`
	Options interface{} `json:"options" yaml:"options"`
}

// Descriptor is a short, stable description of what the stage contributes.
func (s Stage) Descriptor() string {
	switch opts := s.Options.(type) {
	case *CSSOptions:
		return string(s.Kind) + ":" + opts.Output
	case *TransformOptions:
		return string(s.Kind) + ":" + opts.Target
	case *MinifyOptions:
		if !opts.Mangle {
			return string(s.Kind) + ":whitespace+syntax"
		}
		return string(s.Kind)
	default:
		return string(s.Kind)
	}
}
