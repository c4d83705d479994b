package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/logger"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk. Invalid
// revisions are logged and skipped.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	updates chan *Config
	log     *zap.Logger
}

// Watch starts watching path. The parent directory is watched so that
// editors which replace the file on save are picked up too.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		fs:      fw,
		updates: make(chan *Config, 1),
		log:     logger.Named("config"),
	}
	go w.run()
	w.log.Info("watching config file", zap.String("path", abs))
	return w, nil
}

// Updates delivers reloaded configs. Only the latest unread one is kept.
// The channel is closed when the watcher stops.
func (w *Watcher) Updates() <-chan *Config { return w.updates }

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) run() {
	defer close(w.updates)

	var reload <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				reload = time.After(reloadDelay)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", zap.Error(err))

		case <-reload:
			reload = nil
			cfg, err := LoadFile(w.path)
			if err != nil {
				w.log.Warn("ignoring invalid config change", zap.Error(err))
				continue
			}
			select {
			case <-w.updates:
			default:
			}
			w.updates <- cfg
			w.log.Info("config reloaded")
		}
	}
}
