package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watch runs the suite, then re-runs it whenever one of its input files
// changes, until ctx is cancelled. Runs never overlap.
func (s *session) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	out := s.cmd.OutOrStdout()
	watched := make(map[string]bool)
	watchedDirs := make(map[string]bool)

	rerun := func() {
		if _, err := s.runOnce(ctx); err != nil {
			s.log.Errorf("%v", err)
		}
		for _, file := range s.watchTargets() {
			watched[file] = true
			dir := filepath.Dir(file)
			if watchedDirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				s.log.Warnf("failed to watch %s: %v", dir, err)
				continue
			}
			watchedDirs[dir] = true
		}
		fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")
	}

	rerun()
	if len(watched) == 0 {
		s.log.Warnf("nothing to watch: the suite is built in and no config file was found")
	}

	// debounce is nil until a relevant change arrives
	var debounce <-chan time.Time
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if !watched[name] || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			changed = name
			debounce = time.After(WatchDebounceDelay)

		case <-debounce:
			debounce = nil
			fmt.Fprintf(out, "\n\nFile changed: %s\nRe-running suite...\n\n", changed)
			rerun()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Errorf("watcher error: %v", err)
		}
	}
}

// watchTargets lists the files the last run was built from that exist on
// disk: the env file, the config file and the suite file.
func (s *session) watchTargets() []string {
	var files []string
	for _, path := range s.inputs {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			files = append(files, filepath.Clean(abs))
		}
	}
	return files
}
