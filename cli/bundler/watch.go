package bundler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// burstWindow is how long the watcher waits after the last file event before
// rebuilding, so an editor's write+chmod sequence triggers one build.
const burstWindow = 16 * time.Millisecond

// BuildFunc receives the outcome of every build made while watching
type BuildFunc func(*Result, error)

// Watch builds once, then rebuilds whenever a file under the project root
// changes, until ctx is cancelled. Failed builds are reported to onBuild and
// watching continues.
func (b *Bundler) Watch(ctx context.Context, onBuild BuildFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := b.addWatchTree(fw, b.build.Root); err != nil {
		return err
	}

	compileCh := make(chan struct{}, 1)
	requestCompile := func() {
		select {
		case compileCh <- struct{}{}:
		default:
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-compileCh:
				result, err := b.Build(gctx)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if err != nil {
					b.log.Error().Err(err).Msg("Rebuild failed, waiting for changes")
				}
				if onBuild != nil {
					onBuild(result, err)
				}
			}
		}
	})
	g.Go(func() error {
		return b.watchLoop(gctx, fw, requestCompile)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *Bundler) watchLoop(ctx context.Context, fw *fsnotify.Watcher, requestCompile func()) error {
	requestCompile()

	eatBurstTimer := time.NewTimer(0)
	<-eatBurstTimer.C
	changed := make(map[string]struct{})

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			if b.ignoreEvent(ev.Name) {
				continue
			}
			b.log.Debug().Str("event", ev.String()).Msg("File system event")
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := b.addWatchTree(fw, ev.Name); err != nil {
						b.log.Warn().Err(err).Str("dir", b.relPath(ev.Name)).Msg("Failed to watch new directory")
					}
				}
			}
			changed[ev.Name] = struct{}{}
			eatBurstTimer.Reset(burstWindow)
		case <-eatBurstTimer.C:
			if len(changed) == 0 {
				continue
			}
			changedList := make([]string, 0, len(changed))
			for k := range changed {
				changedList = append(changedList, b.relPath(k))
				delete(changed, k)
			}
			sort.Strings(changedList)
			b.log.Info().Strs("files", changedList).Msg("Detected change, rebuilding")
			requestCompile()
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			b.log.Error().Err(err).Msg("File watcher error")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// addWatchTree watches dir and its subdirectories, skipping dependencies,
// hidden directories and the output directory.
func (b *Bundler) addWatchTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != b.build.Root && b.skipDir(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", b.relPath(path), err)
		}
		return nil
	})
}

func (b *Bundler) skipDir(path string) bool {
	name := filepath.Base(path)
	if name == "node_modules" || strings.HasPrefix(name, ".") {
		return true
	}
	return path == b.outputDir()
}

func (b *Bundler) outputDir() string {
	return filepath.Dir(b.build.Abs(b.build.Output.File))
}

// ignoreEvent drops events caused by the build itself.
func (b *Bundler) ignoreEvent(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") || path == b.outputDir() {
		return true
	}
	if filepath.Dir(path) != b.outputDir() {
		return false
	}
	base := filepath.Base(path)
	script := filepath.Base(b.build.Abs(b.build.Output.File))
	style := ""
	if css := b.plan.CSS(); css != nil {
		style = filepath.Base(css.Output)
	}
	return base == script || base == style ||
		base == script+".map" || (style != "" && base == style+".map")
}
