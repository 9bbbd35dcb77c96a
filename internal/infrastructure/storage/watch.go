package storage

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"guidechat/internal/infrastructure/logger"
)

const debounceInterval = 100 * time.Millisecond

// Watch observes the data directory and invokes onChange with the document
// name whenever another process rewrites it. The store's own writes are
// suppressed. Blocks until ctx is cancelled.
func (s *DocumentStore) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	log := logger.GetLogger()

	var timerMu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		timerMu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isTempFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			name := filepath.Base(event.Name)
			if s.consumeSelfWrite(name) {
				continue
			}

			// Debounce bursts of events for the same document.
			timerMu.Lock()
			if t, exists := timers[name]; exists {
				t.Reset(debounceInterval)
			} else {
				timers[name] = time.AfterFunc(debounceInterval, func() {
					timerMu.Lock()
					delete(timers, name)
					timerMu.Unlock()
					log.Debug().Str("document", name).Msg("storage document changed externally")
					onChange(name)
				})
			}
			timerMu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("storage watcher error")
		}
	}
}
