package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the config file whenever it changes on disk and calls onChange
// with the new config. It blocks until ctx is done.
func (m *Manager) Watch(ctx context.Context, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace the file on save, so watch the directory
	if err := watcher.Add(m.GetConfigDir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.GetConfigDir(), err)
	}

	log := logger.WithComponent(logger.ComponentConfig)
	filename := filepath.Base(m.configPath)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("event", event.Op.String()).Msg("Config file changed")
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := m.Reload(); err != nil {
				continue
			}
			if onChange != nil {
				onChange(m.Get())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}
