package mathquill

// Group names a set of related operations of the contract.
type Group string

const (
	GroupConfig   Group = "config"
	GroupInstance Group = "instance"
	GroupEditable Group = "editable"
	GroupFactory  Group = "factory"
)

// Operation describes one member of a capability group
type Operation struct {
	Name        string `json:"name" yaml:"name"`
	Signature   string `json:"signature" yaml:"signature"`
	Description string `json:"description" yaml:"description"`
}

// GroupSpec lists the operations of a group
type GroupSpec struct {
	Group      Group       `json:"group" yaml:"group"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Groups returns the contract for a version. Versions 1 and 2 share one shape.
func Groups() []GroupSpec {
	return []GroupSpec{
		{Group: GroupConfig, Operations: []Operation{
			{"spaceBehavesLikeTab", "bool", "Space escapes the current block like Tab"},
			{"leftRightIntoCmdGoes", "up | down", "block entered when moving into tall commands"},
			{"restrictMismatchedBrackets", "bool", "only allow mismatched pairs like [a,b)"},
			{"sumStartsWithNEquals", "bool", "lower bound of sums starts with n="},
			{"supSubsRequireOperand", "bool", "^ and _ need something to their left"},
			{"charsThatBreakOutOfSupSub", "string", "characters that leave sub/superscripts"},
			{"autoCommands", "string", "commands rendered without a backslash"},
			{"maxDepth", "int", "maximum nesting of blocks"},
			{"substituteTextarea", "func() Element", "factory for the input capture element"},
		}},
		{Group: GroupInstance, Operations: []Operation{
			{"revert", "() Element", "restore the original markup"},
			{"reflow", "()", "recompute layout"},
			{"el", "() Element", "root element"},
			{"latex", "() string", "contents as LaTeX"},
			{"latex", "(latex string)", "replace contents with LaTeX"},
		}},
		{Group: GroupEditable, Operations: []Operation{
			{"focus", "()", "focus the field"},
			{"blur", "()", "remove focus"},
			{"write", "(latex string)", "write LaTeX at the cursor"},
			{"cmd", "(latex string)", "enter a command at the cursor"},
			{"select", "()", "select all contents"},
			{"clearSelection", "()", "clear the selection"},
			{"moveToLeftEnd", "()", "cursor to the left end"},
			{"moveToRightEnd", "()", "cursor to the right end"},
			{"keystroke", "(keys string)", "simulate a key sequence"},
			{"typedText", "(text string)", "simulate typed text"},
			{"config", "(cfg Config)", "reconfigure this field"},
		}},
		{Group: GroupFactory, Operations: []Operation{
			{"config", "Config", "global configuration"},
			{"registerEmbed", "(name string, options map[string]string)", "register an embed"},
			{"html", "() Element", "root element markup"},
			{"StaticMath", "(el Element) StaticMath", "create a static field"},
			{"MathField", "(el Element, cfg *Config) EditableMathField", "create an editable field"},
			{"MQ", "(el Element) EditableMathField", "field attached to an element"},
		}},
	}
}

// Conforms returns the capability groups v satisfies, in contract order.
func Conforms(v any) []Group {
	var out []Group
	switch v.(type) {
	case Config, *Config:
		out = append(out, GroupConfig)
	}
	if _, ok := v.(InstanceMethods); ok {
		out = append(out, GroupInstance)
	}
	if _, ok := v.(EditableMathField); ok {
		out = append(out, GroupEditable)
	}
	if _, ok := v.(Interface); ok {
		out = append(out, GroupFactory)
	}
	return out
}
