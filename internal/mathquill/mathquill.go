// Package mathquill describes the interface of the math-input-field library
// the bundled package wraps. Nothing here renders or edits math: the package
// carries the contract (configuration record, shared field methods,
// editable-only methods, top-level factory) so consumers and test doubles can
// be checked against it.
package mathquill

import (
	"fmt"
	"regexp"
	"strings"
)

// Element is an opaque handle to a host document node.
type Element any

// Direction is where left/right movement enters commands of differing height.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Config is the field configuration record. Unset flags are nil so a
// reconfiguration can tell "leave alone" from "turn off".
type Config struct {
	// SpaceBehavesLikeTab makes Space and Shift-Space leave the current block like Tab.
	SpaceBehavesLikeTab *bool `yaml:"spaceBehavesLikeTab,omitempty" json:"spaceBehavesLikeTab,omitempty"`
	// LeftRightIntoCmdGoes picks the block entered when moving into fractions and similar.
	LeftRightIntoCmdGoes Direction `yaml:"leftRightIntoCmdGoes,omitempty" json:"leftRightIntoCmdGoes,omitempty"`
	// RestrictMismatchedBrackets only allows mismatched pairs like [a,b).
	RestrictMismatchedBrackets *bool `yaml:"restrictMismatchedBrackets,omitempty" json:"restrictMismatchedBrackets,omitempty"`
	// SumStartsWithNEquals pre-fills the lower bound of \sum, \prod and \coprod with n=.
	SumStartsWithNEquals *bool `yaml:"sumStartsWithNEquals,omitempty" json:"sumStartsWithNEquals,omitempty"`
	// SupSubsRequireOperand disables ^ and _ with nothing to their left.
	SupSubsRequireOperand *bool `yaml:"supSubsRequireOperand,omitempty" json:"supSubsRequireOperand,omitempty"`
	// CharsThatBreakOutOfSupSub lists characters that leave a superscript or subscript when typed.
	CharsThatBreakOutOfSupSub string `yaml:"charsThatBreakOutOfSupSub,omitempty" json:"charsThatBreakOutOfSupSub,omitempty"`
	// AutoCommands is a space separated list of commands rendered without a leading backslash.
	AutoCommands string `yaml:"autoCommands,omitempty" json:"autoCommands,omitempty"`
	// MaxDepth limits nested blocks; zero means unlimited.
	MaxDepth int `yaml:"maxDepth,omitempty" json:"maxDepth,omitempty"`
	// SubstituteTextarea creates the focusable element that captures input.
	SubstituteTextarea func() Element `yaml:"-" json:"-"`
}

var alphaRe = regexp.MustCompile(`^[A-Za-z]+$`)

// Validate checks option values the library would reject.
func (c Config) Validate() error {
	switch c.LeftRightIntoCmdGoes {
	case "", DirectionUp, DirectionDown:
	default:
		return fmt.Errorf("leftRightIntoCmdGoes must be %q or %q, got %q", DirectionUp, DirectionDown, c.LeftRightIntoCmdGoes)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("maxDepth must not be negative")
	}

	for _, cmd := range c.AutoCommandList() {
		if !alphaRe.MatchString(cmd) {
			return fmt.Errorf("autoCommands: %q is not alphabetic", cmd)
		}
		if len(cmd) < 2 {
			return fmt.Errorf("autoCommands: %q must be more than one letter", cmd)
		}
	}
	return nil
}

// AutoCommandList splits AutoCommands into command names
func (c Config) AutoCommandList() []string {
	return strings.Fields(c.AutoCommands)
}

// Merge overlays the options set in other onto c.
func (c Config) Merge(other Config) Config {
	out := c
	if other.SpaceBehavesLikeTab != nil {
		out.SpaceBehavesLikeTab = other.SpaceBehavesLikeTab
	}
	if other.RestrictMismatchedBrackets != nil {
		out.RestrictMismatchedBrackets = other.RestrictMismatchedBrackets
	}
	if other.SumStartsWithNEquals != nil {
		out.SumStartsWithNEquals = other.SumStartsWithNEquals
	}
	if other.SupSubsRequireOperand != nil {
		out.SupSubsRequireOperand = other.SupSubsRequireOperand
	}
	if other.LeftRightIntoCmdGoes != "" {
		out.LeftRightIntoCmdGoes = other.LeftRightIntoCmdGoes
	}
	if other.CharsThatBreakOutOfSupSub != "" {
		out.CharsThatBreakOutOfSupSub = other.CharsThatBreakOutOfSupSub
	}
	if other.AutoCommands != "" {
		out.AutoCommands = other.AutoCommands
	}
	if other.MaxDepth != 0 {
		out.MaxDepth = other.MaxDepth
	}
	if other.SubstituteTextarea != nil {
		out.SubstituteTextarea = other.SubstituteTextarea
	}
	return out
}

// Bool returns a pointer to v, for setting flags in a Config literal.
func Bool(v bool) *bool {
	return &v
}

// Enabled reports whether a flag is set to true
func Enabled(flag *bool) bool {
	return flag != nil && *flag
}

// InstanceMethods are shared by static and editable fields.
type InstanceMethods interface {
	// Revert restores the original markup and returns the element.
	Revert() Element
	// Reflow recomputes layout after dimensions changed.
	Reflow()
	// El returns the root element.
	El() Element
	// LaTeX returns the contents as LaTeX.
	LaTeX() string
	// SetLaTeX renders the given LaTeX as the contents.
	SetLaTeX(latex string)
}

// StaticMath is a non-editable display field
type StaticMath interface {
	InstanceMethods
}

// EditableMathField is a field that accepts input.
type EditableMathField interface {
	InstanceMethods

	Focus()
	Blur()
	// Write inserts LaTeX at the cursor, or at its last position when unfocused.
	Write(latex string)
	// Cmd enters a command at the cursor or around the selection.
	Cmd(latex string)
	Select()
	ClearSelection()
	MoveToLeftEnd()
	MoveToRightEnd()
	// Keystroke simulates a whitespace separated key sequence such as "Ctrl-Home Del".
	Keystroke(keys string)
	// TypedText simulates typing text one character at a time.
	TypedText(text string)
	// Config changes the configuration of this field only.
	Config(cfg Config)
}

// Interface is the versioned top-level factory.
type Interface interface {
	Config() Config
	RegisterEmbed(name string, options map[string]string)
	// HTML returns the root element's markup holder.
	HTML() Element
	StaticMath(el Element) StaticMath
	MathField(el Element, cfg *Config) EditableMathField
	// MQ returns the field already attached to el.
	MQ(el Element) EditableMathField
}
