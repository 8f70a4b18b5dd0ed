package bundler

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeArtifacts stages every artifact next to its destination and renames
// them into place only once all of them were written.
func writeArtifacts(artifacts []Artifact) error {
	type staged struct {
		tmp, dst string
	}
	var pending []staged
	cleanup := func() {
		for _, s := range pending {
			_ = os.Remove(s.tmp)
		}
	}

	for _, a := range artifacts {
		dir := filepath.Dir(a.Path)
		if err := os.MkdirAll(dir, 0750); err != nil {
			cleanup()
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}

		f, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to create temp file for %s: %w", a.Path, err)
		}
		pending = append(pending, staged{tmp: f.Name(), dst: a.Path})

		if _, err := f.Write(a.Contents); err != nil {
			_ = f.Close()
			cleanup()
			return fmt.Errorf("failed to write %s: %w", a.Path, err)
		}
		if err := f.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", a.Path, err)
		}
		if err := os.Chmod(f.Name(), 0644); err != nil { //nolint:gosec // build artifacts are meant to be readable
			cleanup()
			return fmt.Errorf("failed to set permissions on %s: %w", a.Path, err)
		}
	}

	for i, s := range pending {
		if err := os.Rename(s.tmp, s.dst); err != nil {
			pending = pending[i:]
			cleanup()
			return fmt.Errorf("failed to move %s into place: %w", s.dst, err)
		}
	}
	return nil
}
