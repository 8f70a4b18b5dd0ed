// Package testutil provides shared fixtures for bundler and CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixture sources of the default consumer project.
const (
	IndexJS = `import $ from 'jquery';
import './style.css';

export function render(el) {
  const opts = el.dataset ?? {};
  return $(el).addClass('mq-math-mode').data('opts', opts);
}
`
	JQueryJS = `module.exports = function jq(el) {
  return { addClass() { return this; }, data() { return el ?? null; } };
};
`
	StyleCSS = `.mq-math-mode { font-family: serif; }
`
)

// WriteProject lays out a minimal consumer project with jquery in
// node_modules under a temp dir and returns its root. Entries of files
// replace or add to the defaults; paths use forward slashes.
func WriteProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()

	all := map[string]string{
		"src/index.js":                     IndexJS,
		"src/style.css":                    StyleCSS,
		"node_modules/jquery/package.json": `{"name":"jquery","main":"index.js"}`,
		"node_modules/jquery/index.js":     JQueryJS,
	}
	for name, contents := range files {
		all[name] = contents
	}

	for name, contents := range all {
		WriteFile(t, root, name, contents)
	}
	return root
}

// WriteFile writes one file below root, creating parent directories.
func WriteFile(t *testing.T, root, name, contents string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750))
	require.NoError(t, os.WriteFile(p, []byte(contents), 0600))
	return p
}
