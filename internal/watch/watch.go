// Package watch reports changed text files under a directory.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultExtensions are the file extensions watched when none are given.
var DefaultExtensions = []string{".txt", ".md", ".markdown", ".html", ".htm"}

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls OnChange with the files written or created under Dir.
type Watcher struct {
	Dir        string
	Extensions []string
	Debounce   time.Duration
	Logger     *slog.Logger
	OnChange   func(ctx context.Context, paths []string)
}

// Matches reports whether path has one of the watched extensions.
func (w *Watcher) Matches(path string) bool {
	exts := w.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// Files returns the watched files currently under Dir, sorted.
func (w *Watcher) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && w.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Run watches until ctx is cancelled. Changes are batched: every path
// changed within the debounce window is reported in one call.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, w.Dir); err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)
	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		clear(pending)
		mu.Unlock()

		if len(paths) > 0 && ctx.Err() == nil {
			slices.Sort(paths)
			logger.Debug("files changed", slog.Int("count", len(paths)))
			w.OnChange(ctx, paths)
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if isDir(event.Name) {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.Matches(event.Name) {
				continue
			}

			mu.Lock()
			pending[event.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, flush)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
