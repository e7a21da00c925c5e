package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration whenever the project config file changes on
// disk, and notifies subscribers with the newly parsed Config.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	logger   *slog.Logger
	done     chan struct{}
}

// WatchConfig starts watching dir for changes to .ftsengine.yaml/.yml and
// invokes onChange with the freshly loaded Config whenever the file is
// written. Returns a Watcher whose Close stops the watch.
func WatchConfig(dir string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		watcher:  fw,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.dir)
			if err != nil {
				w.logger.Warn("config reload failed", "error", err, "path", event.Name)
				continue
			}
			w.logger.Info("config reloaded", "path", event.Name)
			if w.onChange != nil {
				w.onChange(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func isConfigFile(path string) bool {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			base = path[i+1:]
			break
		}
	}
	return base == ".ftsengine.yaml" || base == ".ftsengine.yml"
}
