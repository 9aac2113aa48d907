package challenge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDelay debounces bursts of writes from editors.
const reloadDelay = 250 * time.Millisecond

// Watch reloads b from path whenever the file changes, until ctx is done.
// The parent directory is watched so atomic saves (write + rename) are seen.
// A file that fails to parse is logged and the previous challenges stay live.
func Watch(ctx context.Context, b *Bank, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("challenge watcher: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	log.Info().Str("file", path).Msg("watching challenge bank")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("challenge watcher")

		case <-fire:
			fire = nil
			reload(b, path)
		}
	}
}

func reload(b *Bank, path string) {
	data, err := os.ReadFile(path)
	if err == nil {
		err = b.Reload(data)
	}
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("challenge bank not reloaded")
		return
	}
	log.Info().Interface("challenges", b.Stats()).Msg("challenge bank reloaded")
}
