// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// DefaultDebounce collapses the burst of events an editor or scraper
// produces when rewriting a file.
const DefaultDebounce = 500 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify. It watches
// the file's parent directory so atomic replace-by-rename is seen too.
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// NewFSNotifyWatcher creates a new file watcher.
func NewFSNotifyWatcher(debounce time.Duration, logger *zap.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FSNotifyWatcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Watch emits one event per burst of changes to path.
func (w *FSNotifyWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileEvent, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := w.watcher.Add(filepath.Dir(target)); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 1)

	go func() {
		defer close(events)

		timer := time.NewTimer(time.Hour)
		timer.Stop()
		defer timer.Stop()

		var pending *ports.FileEvent
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				name, err := filepath.Abs(event.Name)
				if err != nil || name != target {
					continue
				}

				op, ok := operation(event.Op)
				if !ok {
					continue
				}
				pending = &ports.FileEvent{Path: target, Operation: op}
				timer.Reset(w.debounce)
			case <-timer.C:
				if pending == nil {
					continue
				}
				select {
				case events <- *pending:
				case <-ctx.Done():
					return
				}
				pending = nil
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("file watcher error", zap.String("path", target), zap.Error(err))
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func operation(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}
