package importer

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	importedSuffix = ".imported"
	failedSuffix   = ".failed"
)

// Watcher imports every file dropped into the import folder whose path
// (relative to the folder) matches the glob pattern. Handled files are
// renamed with an .imported or .failed suffix.
type Watcher struct {
	im       *Importer
	dir      string
	pattern  string
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	procMu sync.Mutex

	// OnImport 每处理完一个文件调用一次（可选）
	OnImport func(path string, res db.ImportResult, err error)
}

func NewWatcher(im *Importer, cfg config.ImportConfig) (*Watcher, error) {
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return nil, errors.New("invalid IMPORT_PATTERN " + cfg.Pattern)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		im:       im,
		dir:      cfg.Dir,
		pattern:  cfg.Pattern,
		debounce: 500 * time.Millisecond,
		fsw:      fsw,
		timers:   map[string]*time.Timer{},
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	// 1) 监听目录树，并处理启动前已经放进来的文件
	var pending []string
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		if w.matches(path) {
			pending = append(pending, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("watching %s for %s", w.dir, w.pattern)
	for _, p := range pending {
		w.schedule(ctx, p)
	}

	// 2) 事件循环
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(ev.Name); err != nil {
						log.Printf("watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && w.matches(ev.Name) {
				w.schedule(ctx, ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("import watcher: %v", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || strings.HasPrefix(filepath.Base(rel), ".") {
		return false
	}
	ok, _ := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return ok
}

// schedule 同一个文件连续写入时只在安静 debounce 之后导入一次
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.process(ctx, path)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	w.procMu.Lock()
	defer w.procMu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return
	}
	res, err := w.im.ImportFile(ctx, path)
	suffix := importedSuffix
	if err != nil {
		suffix = failedSuffix
		log.Printf("import %s failed: %v", path, err)
	}
	if rerr := os.Rename(path, path+suffix); rerr != nil {
		log.Printf("rename %s: %v", path, rerr)
	}
	if w.OnImport != nil {
		w.OnImport(path, res, err)
	}
}
