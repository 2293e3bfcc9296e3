package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/agilira/go-errors"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for after the last event.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the re-loaded configuration or the error loading it.
type ReloadFunc func(cfg *Config, err error)

// Watch calls fn with the freshly loaded configuration whenever the file at
// configPath is written or created. Bursts of events within debounce are
// folded into one reload. The directory is watched so editors replacing the
// file are noticed. Watch blocks until ctx is done.
func Watch(ctx context.Context, configPath string, debounce time.Duration, fn ReloadFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(configPath)
	if err != nil {
		return errors.Wrap(err, ErrCodeWatch, "cannot resolve config path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, ErrCodeWatch, "cannot create file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrap(err, ErrCodeWatch, "cannot watch config directory")
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			fn(LoadConfig(target))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fn(nil, errors.Wrap(err, ErrCodeWatch, "file watcher failed"))
		}
	}
}
