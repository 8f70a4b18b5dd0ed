package bundler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type progressState struct {
	Total int `json:"total"`
}

// progress prints one line per loaded module and remembers the module count
// of the last successful build so the next build can show a total.
type progress struct {
	mu        sync.Mutex
	w         io.Writer
	clearLine bool
	statePath string
	log       zerolog.Logger

	count int
	total int
	done  bool
}

func newProgress(w io.Writer, clearLine bool, statePath string, log zerolog.Logger) *progress {
	// Overwriting a line only makes sense on a terminal.
	if clearLine {
		f, ok := w.(*os.File)
		clearLine = ok && term.IsTerminal(int(f.Fd()))
	}
	return &progress{w: w, clearLine: clearLine, statePath: statePath, log: log}
}

func (p *progress) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count = 0
	p.total = 0
	p.done = false

	data, err := os.ReadFile(p.statePath)
	if err != nil {
		return
	}
	var st progressState
	if err := json.Unmarshal(data, &st); err != nil {
		p.log.Debug().Err(err).Str("file", p.statePath).Msg("Ignoring unreadable progress state")
		return
	}
	p.total = st.Total
}

func (p *progress) loaded(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++

	counter := fmt.Sprintf("(%d)", p.count)
	if p.total > 0 {
		counter = fmt.Sprintf("(%d/%d)", p.count, p.total)
	}
	if p.clearLine {
		_, _ = fmt.Fprintf(p.w, "\r\x1b[K%s: %s", counter, name)
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s\n", counter, name)
}

func (p *progress) finish(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clearLine {
		_, _ = fmt.Fprint(p.w, "\r\x1b[K")
	}
	p.done = ok
}

// save persists the module count of a finished build. Only builds that write
// their artifacts call it.
func (p *progress) save() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		return
	}

	data, err := json.Marshal(progressState{Total: p.count})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.statePath), 0750); err != nil {
		p.log.Warn().Err(err).Msg("Failed to create progress state directory")
		return
	}
	if err := os.WriteFile(p.statePath, data, 0600); err != nil {
		p.log.Warn().Err(err).Msg("Failed to write progress state")
	}
}
