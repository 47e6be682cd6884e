package plugin

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jpalmerr/balancecheck/config"
)

// DefaultDebounce is the quiet period after the last file event before
// settings are reloaded.
const DefaultDebounce = 300 * time.Millisecond

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// WatchSettings reloads settings into p whenever the file at path changes.
//
// The parent directory is watched so that editors replacing the file by
// rename are noticed. Events are debounced. A reload that fails to parse
// keeps the previous settings and is logged. Close stops the watcher and
// waits for it to exit.
func WatchSettings(path string, p *Plugin, debounce time.Duration, logger *slog.Logger) (io.Closer, error) {
	if p == nil {
		return nil, errors.New("plugin cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				reloadSettings(abs, p, logger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("settings watcher error", "error", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldReload(evt, abs) {
					resetTimer()
				}
			}
		}
	}()

	logger.Info("settings auto-reload enabled", "path", abs, "debounce", debounce)

	return closerFunc(func() error {
		close(stopCh)
		err := watcher.Close()
		<-doneCh
		return err
	}), nil
}

func shouldReload(evt fsnotify.Event, path string) bool {
	if filepath.Clean(evt.Name) != path {
		return false
	}
	return evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func reloadSettings(path string, p *Plugin, logger *slog.Logger) {
	settings, err := config.Load(path)
	if err != nil {
		logger.Error("settings reload failed, keeping previous settings", "path", path, "error", err)
		return
	}
	if err := p.SetSettings(settings); err != nil {
		logger.Error("settings reload rejected", "path", path, "error", err)
		return
	}
	logger.Info("settings reloaded", "path", path)
}
