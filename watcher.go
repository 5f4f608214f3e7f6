package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// debounceDelay lets editors finish a save before the documents are reread.
const debounceDelay = 50 * time.Millisecond

// FSChangeMsg is sent when a watched document changes
type FSChangeMsg struct {
	Path string
}

// Watcher reports changes to a fixed set of files. It watches their directories because
// many editors save by renaming a temporary file over the original.
type Watcher struct {
	watcher    *fsnotify.Watcher
	files      map[string]bool
	isWatching bool
}

// NewWatcher creates a watcher for the given file paths
func NewWatcher(paths ...string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsWatcher,
		files:   make(map[string]bool, len(paths)),
	}
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			_ = fsWatcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	w.isWatching = true
	return w, nil
}

// WaitForChange waits for the next change to a watched file
func (w *Watcher) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		if !w.isWatching {
			return errMsg{errors.New("watcher is not running")}
		}

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return errMsg{errors.New("watcher closed")}
				}
				if !w.relevant(event) {
					continue
				}
				time.Sleep(debounceDelay)
				w.drain()
				return FSChangeMsg{Path: event.Name}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return errMsg{errors.New("watcher closed")}
				}
				return errMsg{err}
			}
		}
	}
}

// relevant reports whether event touches a watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}

// drain discards events already queued so one save produces one reload.
func (w *Watcher) drain() {
	for {
		select {
		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Close closes the file system watcher
func (w *Watcher) Close() error {
	if !w.isWatching {
		return nil
	}

	w.isWatching = false
	return w.watcher.Close()
}
