package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/CTAG07/Quill/pkg/engine"
)

// TemplateExt is the file extension of template files in a synced directory.
const TemplateExt = ".tmpl"

// DefaultDebounce is how long Watch waits for a burst of file events to settle.
const DefaultDebounce = 250 * time.Millisecond

// SyncReport lists the template names touched by a sync.
type SyncReport struct {
	Created   []string `json:"created"`
	Updated   []string `json:"updated"`
	Unchanged []string `json:"unchanged"`
}

// Total is the number of template files seen.
func (r SyncReport) Total() int {
	return len(r.Created) + len(r.Updated) + len(r.Unchanged)
}

func (r *SyncReport) merge(o SyncReport) {
	r.Created = append(r.Created, o.Created...)
	r.Updated = append(r.Updated, o.Updated...)
	r.Unchanged = append(r.Unchanged, o.Unchanged...)
}

// Loader imports *.tmpl files from a directory tree.
type Loader struct {
	root     string
	dst      Templates
	debounce time.Duration
	logger   *slog.Logger
	onSync   func(SyncReport)
}

// NewLoader creates a Loader that imports templates from root into dst.
func NewLoader(root string, dst Templates) *Loader {
	return &Loader{
		root:     root,
		dst:      dst,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Loader. By default, all logs are discarded.
func (l *Loader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// SetDebounce sets how long Watch waits after the last event before syncing.
func (l *Loader) SetDebounce(d time.Duration) {
	if d > 0 {
		l.debounce = d
	}
}

// OnSync registers a callback invoked by Watch after each re-sync.
func (l *Loader) OnSync(fn func(SyncReport)) {
	l.onSync = fn
}

// Sync imports every template file under the root directory. Files whose
// content and category already match the stored template are left alone, so
// their version does not change.
func (l *Loader) Sync(ctx context.Context) (SyncReport, error) {
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isTemplateFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return SyncReport{}, fmt.Errorf("failed to scan template directory: %w", err)
	}
	sort.Strings(paths)
	return l.syncFiles(ctx, paths)
}

func (l *Loader) syncFiles(ctx context.Context, paths []string) (SyncReport, error) {
	var report SyncReport
	for _, path := range paths {
		r, err := l.syncFile(ctx, path)
		if err != nil {
			return report, err
		}
		report.merge(r)
	}
	return report, nil
}

func (l *Loader) syncFile(ctx context.Context, path string) (SyncReport, error) {
	name, category, err := l.identify(path)
	if err != nil {
		return SyncReport{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Removed between the event and the sync; templates are never deleted.
			return SyncReport{}, nil
		}
		return SyncReport{}, fmt.Errorf("failed to read template file: %w", err)
	}
	content := string(data)

	existing, err := l.dst.GetTemplate(ctx, name)
	switch {
	case err == nil:
		if existing.Content == content && (category == "" || existing.Category == category) {
			return SyncReport{Unchanged: []string{name}}, nil
		}
	case errors.Is(err, engine.ErrNotFound):
	default:
		return SyncReport{}, err
	}

	res, err := l.dst.UpsertTemplate(ctx, name, content, category)
	if err != nil {
		return SyncReport{}, fmt.Errorf("failed to import '%s': %w", path, err)
	}
	l.logger.InfoContext(ctx, "Template synced from file",
		"template", name,
		"path", path,
		"version", res.Template.Version,
	)
	if res.Created {
		return SyncReport{Created: []string{name}}, nil
	}
	return SyncReport{Updated: []string{name}}, nil
}

// identify derives the template name and category of a file under root.
func (l *Loader) identify(path string) (name, category string, err error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve template path: %w", err)
	}
	name = strings.TrimSuffix(filepath.Base(rel), TemplateExt)
	if dir := filepath.Dir(rel); dir != "." {
		category = filepath.ToSlash(dir)
	}
	return name, category, nil
}

func isTemplateFile(path string) bool {
	return filepath.Ext(path) == TemplateExt && !strings.HasPrefix(filepath.Base(path), ".")
}

// Watch performs an initial Sync and then re-imports template files as they
// are created or modified, until ctx is cancelled. Bursts of events are
// debounced. Errors while syncing a single file are logged, not returned.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func(w *fsnotify.Watcher) {
		_ = w.Close()
	}(watcher)

	if err = l.addRecursive(watcher, l.root); err != nil {
		return err
	}

	report, err := l.Sync(ctx)
	if err != nil {
		return err
	}
	l.logger.Info("Initial template sync complete",
		"created", len(report.Created),
		"updated", len(report.Updated),
		"unchanged", len(report.Unchanged),
	)
	if l.onSync != nil {
		l.onSync(report)
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(l.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := l.addRecursive(watcher, event.Name); err != nil {
						l.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
					// Files may have been written before the watch was added.
					_ = filepath.WalkDir(event.Name, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && isTemplateFile(p) {
							pending[p] = struct{}{}
						}
						return nil
					})
					timer.Reset(l.debounce)
					continue
				}
			}
			if !isTemplateFile(event.Name) || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(l.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("File watcher error", "error", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)

			report, err := l.syncFiles(ctx, paths)
			if err != nil {
				l.logger.Error("Template sync failed", "error", err)
			}
			if report.Total() > 0 && l.onSync != nil {
				l.onSync(report)
			}
		}
	}
}

func (l *Loader) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != l.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch '%s': %w", path, err)
		}
		return nil
	})
}
