package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hlop3z/eavforge/internal/cli"
)

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// watch regenerates whenever one of files changes, until ctx is done.
//
// Directories are watched rather than files so editors that save by
// rename keep triggering. The watched set is refreshed after every run.
func (a *app) watch(ctx context.Context, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	p := a.printer()
	targets := map[string]bool{}
	dirs := map[string]bool{}
	track := func(files []string) {
		clear(targets)
		for _, f := range files {
			abs, err := filepath.Abs(f)
			if err != nil {
				continue
			}
			targets[abs] = true
			dir := filepath.Dir(abs)
			if dirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				p.Print(cli.FormatWarning(fmt.Sprintf("cannot watch %s: %v", dir, err)))
				continue
			}
			dirs[dir] = true
		}
	}
	track(files)
	if len(targets) == 0 {
		p.Print(cli.FormatWarning("nothing to watch: no config file, hook script or external models"))
		return nil
	}
	p.Print(cli.FormatNote(fmt.Sprintf("watching %s (ctrl+c to stop)", cli.FormatCount(len(targets), "file", "files"))))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] {
				continue
			}
			timer.Reset(watchDebounce)

		case <-timer.C:
			p.Print(cli.FormatNote("change detected, regenerating"))
			next, err := a.generate(ctx)
			if err != nil {
				p.Error(err)
			}
			if len(next) > 0 {
				track(next)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.Print(cli.FormatWarning(fmt.Sprintf("file watcher: %v", err)))
		}
	}
}
