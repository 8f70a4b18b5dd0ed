package pipeline

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/fluxbase-eu/mqbundle/internal/config"
)

var (
	ErrUnknownStage   = errors.New("unknown stage")
	ErrDuplicateStage = errors.New("duplicate stage")
	ErrMissingStage   = errors.New("missing required stage")
	ErrStageOrder     = errors.New("invalid stage order")
	ErrStageOptions   = errors.New("invalid stage options")
)

// RequiredKinds must be present in every plan
var RequiredKinds = []Kind{KindCSS, KindTransform}

// Targets accepted by the transform stage
var Targets = []string{
	"es2015", "es2016", "es2017", "es2018", "es2019",
	"es2020", "es2021", "es2022", "esnext",
}

// Plan is the ordered list of enabled stages of one build.
type Plan struct {
	Stages []Stage `json:"stages" yaml:"stages"`
}

// Compile validates the plugin list of a build and decodes each stage's options.
func Compile(build *config.Build) (*Plan, error) {
	plan := &Plan{}
	seen := make(map[Kind]string)
	terminal := ""

	for i, sc := range build.Plugins {
		if !sc.IsEnabled() {
			continue
		}

		kind, ok := Canonical(sc.Name)
		if !ok {
			return nil, fmt.Errorf("%w: plugins[%d] %q (known: %s)", ErrUnknownStage, i, sc.Name, knownKinds())
		}
		if prev, dup := seen[kind]; dup {
			return nil, fmt.Errorf("%w: %q and %q are both %s stages", ErrDuplicateStage, prev, sc.Name, kind)
		}
		seen[kind] = sc.Name

		phase := PhaseOf(kind)
		if phase.Terminal() {
			if terminal == "" {
				terminal = sc.Name
			}
		} else if terminal != "" {
			return nil, fmt.Errorf("%w: %q (%s) must come before terminal stage %q", ErrStageOrder, sc.Name, phase, terminal)
		}

		opts, err := decodeOptions(kind, sc.Options)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStageOptions, sc.Name, err)
		}

		plan.Stages = append(plan.Stages, Stage{
			Name:    sc.Name,
			Kind:    kind,
			Phase:   phase,
			Options: opts,
		})
	}

	for _, k := range RequiredKinds {
		if _, ok := seen[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingStage, k)
		}
	}

	return plan, nil
}

func decodeOptions(kind Kind, raw map[string]interface{}) (interface{}, error) {
	opts := kinds[kind].newOptions()
	if len(raw) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           opts,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, err
		}
	}

	switch o := opts.(type) {
	case *CSSOptions:
		if o.Output == "" {
			return nil, fmt.Errorf("output cannot be empty")
		}
	case *TransformOptions:
		if !validTarget(o.Target) {
			return nil, fmt.Errorf("unsupported target %q", o.Target)
		}
		for _, p := range append(append([]string{}, o.Include...), o.Exclude...) {
			// path.Match checks the whole pattern; "**" is valid syntax for it too.
			if _, err := path.Match(p, ""); err != nil {
				return nil, fmt.Errorf("bad glob %q: %v", p, err)
			}
		}
	case *ProgressOptions:
		if o.StateFile == "" {
			return nil, fmt.Errorf("state_file cannot be empty")
		}
	}
	return opts, nil
}

func knownKinds() string {
	names := make([]string, 0, len(kinds))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func validTarget(t string) bool {
	for _, v := range Targets {
		if v == t {
			return true
		}
	}
	return false
}

// Has reports whether the plan contains a stage of the given kind
func (p *Plan) Has(k Kind) bool {
	_, ok := p.Stage(k)
	return ok
}

// Stage returns the stage of the given kind
func (p *Plan) Stage(k Kind) (Stage, bool) {
	for _, s := range p.Stages {
		if s.Kind == k {
			return s, true
		}
	}
	return Stage{}, false
}

// Reports returns the report stages in declared order
func (p *Plan) Reports() []Stage {
	var out []Stage
	for _, s := range p.Stages {
		if s.Phase == PhaseReport {
			out = append(out, s)
		}
	}
	return out
}

// With returns a copy of the plan with a default-configured stage of kind k
// appended, unless one is already present.
func (p *Plan) With(k Kind) *Plan {
	out := &Plan{Stages: append([]Stage(nil), p.Stages...)}
	if p.Has(k) {
		return out
	}
	info, ok := kinds[k]
	if !ok {
		return out
	}
	out.Stages = append(out.Stages, Stage{
		Name:    string(k),
		Kind:    k,
		Phase:   info.phase,
		Options: info.newOptions(),
	})
	return out
}

// TransformSet lists the stage descriptors in declared order.
func (p *Plan) TransformSet() []string {
	out := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		out = append(out, s.Descriptor())
	}
	return out
}

// CSS returns the stylesheet extraction options
func (p *Plan) CSS() *CSSOptions {
	if s, ok := p.Stage(KindCSS); ok {
		return s.Options.(*CSSOptions)
	}
	return nil
}

// Transform returns the syntax lowering options
func (p *Plan) Transform() *TransformOptions {
	if s, ok := p.Stage(KindTransform); ok {
		return s.Options.(*TransformOptions)
	}
	return nil
}

// Resolve returns the resolution options, or nil when packages stay external.
func (p *Plan) Resolve() *ResolveOptions {
	if s, ok := p.Stage(KindResolve); ok {
		return s.Options.(*ResolveOptions)
	}
	return nil
}

// Minify returns the minification options, or nil when output is not minified.
func (p *Plan) Minify() *MinifyOptions {
	if s, ok := p.Stage(KindMinify); ok {
		return s.Options.(*MinifyOptions)
	}
	return nil
}

// Progress returns the progress options
func (p *Plan) Progress() *ProgressOptions {
	if s, ok := p.Stage(KindProgress); ok {
		return s.Options.(*ProgressOptions)
	}
	return nil
}
