package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultManifestWatchDebounce groups bursts of editor writes into one reload.
const DefaultManifestWatchDebounce = 250 * time.Millisecond

// ManifestWatcher reloads manifest files into a Catalog when they change.
// Parent directories are watched so atomic-rename saves are seen.
type ManifestWatcher struct {
	catalog  *Catalog
	paths    map[string]struct{}
	logger   *zap.Logger
	debounce time.Duration
	onReload func(path string, err error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ManifestWatcherOptions configures a ManifestWatcher.
type ManifestWatcherOptions struct {
	Catalog  *Catalog
	Paths    []string
	Logger   *zap.Logger
	Debounce time.Duration
	// OnReload runs after every reload attempt.
	OnReload func(path string, err error)
}

// NewManifestWatcher builds a watcher. Call Start to begin watching.
func NewManifestWatcher(opts ManifestWatcherOptions) (*ManifestWatcher, error) {
	if opts.Catalog == nil {
		return nil, errMissingCatalog
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultManifestWatchDebounce
	}
	paths := make(map[string]struct{}, len(opts.Paths))
	for _, path := range opts.Paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("builder: resolve manifest path %s: %w", path, err)
		}
		paths[abs] = struct{}{}
	}
	return &ManifestWatcher{
		catalog:  opts.Catalog,
		paths:    paths,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		onReload: opts.OnReload,
	}, nil
}

// Start begins watching until ctx is done or Close is called.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("builder: manifest watcher: %w", err)
	}
	dirs := map[string]struct{}{}
	for path := range w.paths {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("builder: watch %s: %w", dir, err)
		}
	}
	w.watcher = watcher
	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(watchCtx, watcher)
	return nil
}

// Close stops watching and waits for the loop to exit.
func (w *ManifestWatcher) Close() error {
	w.mu.Lock()
	watcher, cancel := w.watcher, w.cancel
	w.watcher, w.cancel = nil, nil
	w.mu.Unlock()
	if watcher == nil {
		return nil
	}
	cancel()
	err := watcher.Close()
	w.wg.Wait()
	return err
}

func (w *ManifestWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	debouncers := map[string]func(func()){}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.paths[path]; !watched {
				continue
			}
			debounced, ok := debouncers[path]
			if !ok {
				debounced = debounce.New(w.debounce)
				debouncers[path] = debounced
			}
			debounced(func() { w.reload(path) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("manifest watch error", zap.Error(err))
		}
	}
}

func (w *ManifestWatcher) reload(path string) {
	doc, err := w.catalog.LoadManifestFile(path)
	if err != nil {
		w.logger.Warn("manifest reload failed", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Info("manifest reloaded", zap.String("path", path), zap.Int("types", len(doc.Types)))
	}
	if w.onReload != nil {
		w.onReload(path, err)
	}
}
