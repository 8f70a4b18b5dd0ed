package bundler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrBuildFailed is matched by every *BuildError
var ErrBuildFailed = errors.New("build failed")

// Message is one diagnostic reported by the build
type Message struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Text   string `json:"text"`
	Plugin string `json:"plugin,omitempty"`
}

func (m Message) String() string {
	if m.File == "" {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
}

// BuildError carries every error message of a failed build.
type BuildError struct {
	Messages []Message
}

func (e *BuildError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		parts = append(parts, m.String())
	}
	return fmt.Sprintf("%s: %s", ErrBuildFailed, strings.Join(parts, "; "))
}

func (e *BuildError) Unwrap() error {
	return ErrBuildFailed
}

func convertMessages(msgs []api.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		m := Message{Text: msg.Text, Plugin: msg.PluginName}
		if msg.Location != nil {
			m.File = msg.Location.File
			m.Line = msg.Location.Line
			m.Column = msg.Location.Column
		}
		out = append(out, m)
	}
	return out
}

func toPluginMessages(msgs []api.Message) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, api.Message{Text: msg.Text, Location: msg.Location})
	}
	return out
}
