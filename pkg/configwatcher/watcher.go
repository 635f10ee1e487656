package configwatcher

import (
	"path/filepath"
	"time"
	"victorina_backend/internal/config"
	"victorina_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = time.Second

// Watch blocks until stop is closed. It watches the directory holding
// configPath, so files replaced by rename are picked up too, and calls every
// reloader with a freshly parsed config once writes have settled.
func Watch(configPath string, stop <-chan struct{}, reloaders ...func(*config.Config)) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var reload <-chan time.Time
	for {
		select {
		case <-stop:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				reload = time.After(debounce)
			}

		case <-reload:
			reload = nil
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				logger.Log.Error("Config reload failed, keeping previous values", zap.String("path", absPath), zap.Error(err))
				continue
			}
			for _, apply := range reloaders {
				apply(cfg)
			}
			logger.Log.Info("Config reloaded", zap.String("path", absPath), zap.Int("reloaders", len(reloaders)))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Warn("Config watcher error", zap.Error(err))
		}
	}
}
