package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/trellis/pkg/logging"
)

// DefaultDebounce collapses the event bursts editors and atomic-rename
// writers produce into a single reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher invokes a callback when one document file changes on disk. It
// watches the parent directory rather than the file itself so that
// write-then-rename replacements keep being observed.
type Watcher struct {
	path     string
	base     string
	debounce time.Duration
	onChange func(path string)

	fs  *fsnotify.Watcher
	log logging.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher prepares a watcher for path. A non-positive debounce falls back
// to DefaultDebounce. Call Start to begin delivering callbacks.
func NewWatcher(path string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     path,
		base:     filepath.Base(path),
		debounce: debounce,
		onChange: onChange,
		fs:       fs,
		log:      logging.With(logging.Component("store"), logging.String("watch", path)),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the event loop. The watcher stops when ctx is cancelled or
// Close is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.log.Debug("document changed on disk")
			w.onChange(w.path)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", logging.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

// Close stops the watcher. Safe to call more than once; pending debounced
// callbacks are discarded.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		}
		err = w.fs.Close()
	})
	return err
}
