package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/reflex/internal/logging"
)

// DefaultDebounce is how long the file must stay quiet before a change is signaled.
const DefaultDebounce = 100 * time.Millisecond

// FileWatcher loads rule text from a local file and signals when it changes.
// The parent directory is watched so editors that replace the file on save are
// still observed.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// FileOption configures the FileWatcher.
type FileOption func(*FileWatcher)

// WithDebounce sets the quiet period before a change is signaled.
func WithDebounce(d time.Duration) FileOption {
	return func(w *FileWatcher) {
		w.debounce = d
	}
}

// WithFileLogger sets the logger for watcher errors.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(w *FileWatcher) {
		w.logger = logger
	}
}

// NewFileWatcher creates a source for path.
func NewFileWatcher(path string, opts ...FileOption) *FileWatcher {
	w := &FileWatcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the watched file.
func (w *FileWatcher) Path() string { return w.path }

// Load reads the whole file.
func (w *FileWatcher) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to read rules: %w", err)
	}
	return string(data), nil
}

// Watch signals after writes, creates and renames of the file settle.
// The channel is closed when ctx is done.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan struct{}, 1)
	go w.run(ctx, watcher, abs, ch)
	return ch, nil
}

func (w *FileWatcher) run(ctx context.Context, watcher *fsnotify.Watcher, target string, ch chan struct{}) {
	defer close(ch)
	defer watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("Rule file event", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Rule file watcher error", "path", target, "err", err)

		case <-timer.C:
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}
