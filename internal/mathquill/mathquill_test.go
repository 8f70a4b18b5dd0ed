package mathquill

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// recordingField records calls so the contract can be exercised without a renderer.
type recordingField struct {
	latex string
	calls []string
	cfg   Config
}

func (f *recordingField) Revert() Element       { f.calls = append(f.calls, "revert"); return f }
func (f *recordingField) Reflow()               { f.calls = append(f.calls, "reflow") }
func (f *recordingField) El() Element           { return f }
func (f *recordingField) LaTeX() string         { return f.latex }
func (f *recordingField) SetLaTeX(latex string) { f.latex = latex }
func (f *recordingField) Focus()                { f.calls = append(f.calls, "focus") }
func (f *recordingField) Blur()                 { f.calls = append(f.calls, "blur") }
func (f *recordingField) Write(latex string)    { f.latex += latex }
func (f *recordingField) Cmd(latex string)      { f.latex += latex }
func (f *recordingField) Select()               { f.calls = append(f.calls, "select") }
func (f *recordingField) ClearSelection()       { f.calls = append(f.calls, "clearSelection") }
func (f *recordingField) MoveToLeftEnd()        { f.calls = append(f.calls, "moveToLeftEnd") }
func (f *recordingField) MoveToRightEnd()       { f.calls = append(f.calls, "moveToRightEnd") }
func (f *recordingField) Keystroke(keys string) { f.calls = append(f.calls, "keystroke:"+keys) }
func (f *recordingField) TypedText(text string) { f.latex += text }
func (f *recordingField) Config(cfg Config)     { f.cfg = f.cfg.Merge(cfg) }

type staticField struct{ latex string }

func (f *staticField) Revert() Element       { return f }
func (f *staticField) Reflow()               {}
func (f *staticField) El() Element           { return f }
func (f *staticField) LaTeX() string         { return f.latex }
func (f *staticField) SetLaTeX(latex string) { f.latex = latex }

type recordingInterface struct {
	cfg    Config
	embeds map[string]map[string]string
}

func (i *recordingInterface) Config() Config { return i.cfg }
func (i *recordingInterface) RegisterEmbed(name string, options map[string]string) {
	i.embeds[name] = options
}
func (i *recordingInterface) HTML() Element                  { return "<span class=\"mq-root-block\"></span>" }
func (i *recordingInterface) StaticMath(el Element) StaticMath { return &staticField{} }
func (i *recordingInterface) MathField(el Element, cfg *Config) EditableMathField {
	f := &recordingField{cfg: i.cfg}
	if cfg != nil {
		f.cfg = f.cfg.Merge(*cfg)
	}
	return f
}
func (i *recordingInterface) MQ(el Element) EditableMathField { return &recordingField{} }

func unregisterAll() {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers = make(map[int]Factory)
}

func TestGetInterface(t *testing.T) {
	t.Cleanup(unregisterAll)
	unregisterAll()

	_, err := GetInterface(LatestVersion)
	assert.True(t, errors.Is(err, ErrNoProvider))

	_, err = GetInterface(3)
	assert.True(t, errors.Is(err, ErrUnknownVersion))
	_, err = GetInterface(0)
	assert.True(t, errors.Is(err, ErrUnknownVersion))

	Register(LatestVersion, func() Interface {
		return &recordingInterface{embeds: map[string]map[string]string{}}
	})
	assert.Equal(t, []int{2}, Versions())

	mq, err := GetInterface(2)
	require.NoError(t, err)
	assert.Equal(t, []Group{GroupFactory}, Conforms(mq))

	field := mq.MathField(nil, &Config{AutoCommands: "pi sqrt"})
	assert.Equal(t, []Group{GroupInstance, GroupEditable}, Conforms(field))

	static := mq.StaticMath(nil)
	assert.Equal(t, []Group{GroupInstance}, Conforms(static))
	assert.Equal(t, []Group{GroupConfig}, Conforms(mq.Config()))

	field.Write(`\frac{1}{2}`)
	assert.Equal(t, `\frac{1}{2}`, field.LaTeX())
}

func TestRegister_Panics(t *testing.T) {
	t.Cleanup(unregisterAll)
	unregisterAll()

	factory := func() Interface { return &recordingInterface{} }
	assert.Panics(t, func() { Register(0, factory) })
	assert.Panics(t, func() { Register(1, nil) })

	Register(1, factory)
	assert.Panics(t, func() { Register(1, factory) })
}

func TestGroups(t *testing.T) {
	groups := Groups()
	require.Len(t, groups, 4)

	counts := map[Group]int{}
	for _, g := range groups {
		counts[g.Group] = len(g.Operations)
	}
	assert.Equal(t, 9, counts[GroupConfig])
	assert.Equal(t, 5, counts[GroupInstance])
	assert.Equal(t, 11, counts[GroupEditable])
	assert.Equal(t, 6, counts[GroupFactory])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{name: "zero value", cfg: Config{}},
		{name: "full", cfg: Config{LeftRightIntoCmdGoes: DirectionUp, AutoCommands: "pi theta sqrt sum", MaxDepth: 3, CharsThatBreakOutOfSupSub: "+-=<>"}},
		{name: "bad direction", cfg: Config{LeftRightIntoCmdGoes: "left"}, errMsg: "leftRightIntoCmdGoes"},
		{name: "negative depth", cfg: Config{MaxDepth: -1}, errMsg: "maxDepth"},
		{name: "non alphabetic command", cfg: Config{AutoCommands: "pi s2"}, errMsg: "not alphabetic"},
		{name: "single letter command", cfg: Config{AutoCommands: "pi x"}, errMsg: "more than one letter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_YAML(t *testing.T) {
	src := `
spaceBehavesLikeTab: true
leftRightIntoCmdGoes: down
autoCommands: pi theta
maxDepth: 10
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(src), &cfg))
	assert.True(t, Enabled(cfg.SpaceBehavesLikeTab))
	assert.Nil(t, cfg.SumStartsWithNEquals)
	assert.Equal(t, DirectionDown, cfg.LeftRightIntoCmdGoes)
	assert.Equal(t, []string{"pi", "theta"}, cfg.AutoCommandList())
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Merge(t *testing.T) {
	base := Config{AutoCommands: "pi", MaxDepth: 2, LeftRightIntoCmdGoes: DirectionUp, SpaceBehavesLikeTab: Bool(true)}
	merged := base.Merge(Config{SumStartsWithNEquals: Bool(true), MaxDepth: 5})

	assert.Equal(t, "pi", merged.AutoCommands)
	assert.Equal(t, 5, merged.MaxDepth)
	assert.Equal(t, DirectionUp, merged.LeftRightIntoCmdGoes)
	assert.True(t, Enabled(merged.SumStartsWithNEquals))
	assert.True(t, Enabled(merged.SpaceBehavesLikeTab))
	assert.Equal(t, 2, base.MaxDepth)
}

func TestConfig_MergeTurnsFlagsOff(t *testing.T) {
	f := &recordingField{cfg: Config{SpaceBehavesLikeTab: Bool(true), SupSubsRequireOperand: Bool(true)}}
	f.Config(Config{SpaceBehavesLikeTab: Bool(false)})

	require.NotNil(t, f.cfg.SpaceBehavesLikeTab)
	assert.False(t, *f.cfg.SpaceBehavesLikeTab)
	assert.True(t, Enabled(f.cfg.SupSubsRequireOperand), "flags not named keep their value")
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys("Ctrl-Home  Del Shift-Ctrl-Left - Ctrl-- a")
	require.NoError(t, err)
	require.Len(t, keys, 6)

	assert.Equal(t, "Ctrl-Home", keys[0].String())
	assert.Equal(t, "Del", keys[1].String())
	assert.Equal(t, "Ctrl-Shift-Left", keys[2].String())
	assert.True(t, keys[2].Has(ModShift))
	assert.Equal(t, "-", keys[3].Name)
	assert.Equal(t, "Ctrl--", keys[4].String())
	assert.Equal(t, "a", keys[5].Name)

	empty, err := ParseKeys("   ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseKeys("Ctrl-Ctrl-Home")
	assert.ErrorContains(t, err, "repeats modifier")

	_, err = ParseKeys("Hyper-Home")
	assert.ErrorContains(t, err, "unknown key")

	_, err = ParseKeys("Homer")
	assert.ErrorContains(t, err, "unknown key")
}
