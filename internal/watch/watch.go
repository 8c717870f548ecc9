// Package watch reports changes to a fixed set of files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which removes the watch on the original inode. Watcher therefore
// watches each file's directory and filters events by name. Bursts of
// events are coalesced: a batch is delivered once no watched file has
// changed for the debounce delay.
package watch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the debounce delay used when none is set.
const DefaultDelay = 100 * time.Millisecond

// ErrNoFiles is returned by New when no paths are given.
var ErrNoFiles = errors.New("no files to watch")

// Watcher delivers batches of changed files.
type Watcher struct {
	fsw    *fsnotify.Watcher
	delay  time.Duration
	logger *slog.Logger

	files map[string]struct{}

	changes chan []string
	errors  chan error

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New starts watching paths. Every path must exist.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	w := &Watcher{
		delay:   DefaultDelay,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		files:   make(map[string]struct{}, len(paths)),
		changes: make(chan []string),
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes returns the channel of changed-file batches. Paths are absolute
// and sorted. The channel is closed by Close.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Errors returns watch errors. Errors are dropped if nobody reads them.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	defer close(w.changes)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = struct{}{}
			timer.Reset(w.delay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))
			select {
			case w.errors <- err:
			default:
			}

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			clear(pending)

			w.logger.Debug("files changed", slog.Any("files", batch))
			select {
			case w.changes <- batch:
			case <-w.closeCh:
				return
			}
		}
	}
}

// relevant reports whether ev changes the content of a watched file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
