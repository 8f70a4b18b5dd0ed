package mathquill

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Modifier is a key prefix in a keystroke sequence
type Modifier string

const (
	ModCtrl  Modifier = "Ctrl"
	ModMeta  Modifier = "Meta"
	ModAlt   Modifier = "Alt"
	ModShift Modifier = "Shift"
)

// modifierOrder is the order modifiers are written in a canonical key name.
var modifierOrder = []Modifier{ModCtrl, ModMeta, ModAlt, ModShift}

var namedKeys = map[string]bool{
	"Backspace": true, "Del": true, "Enter": true, "Esc": true, "Tab": true, "Spacebar": true,
	"Left": true, "Right": true, "Up": true, "Down": true, "Home": true, "End": true,
	"PageUp": true, "PageDown": true, "Insert": true,
}

// Key is one entry of a keystroke sequence
type Key struct {
	Modifiers []Modifier
	Name      string
}

// String returns the canonical form, modifiers ordered Ctrl, Meta, Alt, Shift.
func (k Key) String() string {
	var b strings.Builder
	for _, m := range modifierOrder {
		if k.Has(m) {
			b.WriteString(string(m))
			b.WriteByte('-')
		}
	}
	b.WriteString(k.Name)
	return b.String()
}

// Has reports whether the modifier is held
func (k Key) Has(m Modifier) bool {
	for _, have := range k.Modifiers {
		if have == m {
			return true
		}
	}
	return false
}

// ParseKeys parses a whitespace separated sequence like "Ctrl-Home Shift-Left Del".
func ParseKeys(seq string) ([]Key, error) {
	fields := strings.Fields(seq)
	keys := make([]Key, 0, len(fields))
	for _, field := range fields {
		k, err := parseKey(field)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func parseKey(field string) (Key, error) {
	var k Key
	rest := field
	for {
		i := strings.IndexByte(rest, '-')
		// a lone "-" or a trailing "-" is the minus key itself
		if i <= 0 || i == len(rest)-1 {
			break
		}
		mod := Modifier(rest[:i])
		if !isModifier(mod) {
			break
		}
		if k.Has(mod) {
			return Key{}, fmt.Errorf("key %q repeats modifier %s", field, mod)
		}
		k.Modifiers = append(k.Modifiers, mod)
		rest = rest[i+1:]
	}

	if !namedKeys[rest] && utf8.RuneCountInString(rest) != 1 {
		return Key{}, fmt.Errorf("unknown key %q in %q", rest, field)
	}
	k.Name = rest
	return k, nil
}

func isModifier(m Modifier) bool {
	for _, known := range modifierOrder {
		if known == m {
			return true
		}
	}
	return false
}
