package server

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the bursts of events an atomic write produces.
const reloadDebounce = 500 * time.Millisecond

// watcher calls onChange after the watched file settles.
type watcher struct {
	fsw      *fsnotify.Watcher
	target   string
	onChange func()
	logger   *log.Logger
	delay    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// newWatcher watches the directory holding path, which also catches files
// replaced by rename.
func newWatcher(path string, onChange func(), logger *log.Logger) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		fsw:      fsw,
		target:   filepath.Base(abs),
		onChange: onChange,
		logger:   logger,
		delay:    reloadDebounce,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run()
	logger.Info("watching source", "path", abs)
	return w, nil
}

func (w *watcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.logger.Warn("source file removed", "path", event.Name)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.trigger()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// trigger restarts the debounce timer.
func (w *watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		if w.ctx.Err() == nil {
			w.onChange()
		}
	})
}

// Close stops watching. Pending callbacks are dropped.
func (w *watcher) Close() error {
	w.cancel()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.fsw.Close()
	<-w.done
	return err
}
