package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file on change and hands valid snapshots to
// a callback. Invalid edits are logged and skipped; the previous config
// stays in effect.
type Watcher struct {
	path string
	log  zerolog.Logger

	// mu serializes reloads: debounce timers fire on their own
	// goroutines, and a slow reload can overlap the next one.
	mu sync.Mutex

	// lastHash tracks the last committed file content, so editors that
	// fire several write events for one save publish only once.
	lastHash uint64
}

func NewWatcher(path string, log zerolog.Logger) *Watcher {
	return &Watcher{path: path, log: log}
}

// Run watches until ctx is done, invoking onChange for every distinct
// valid config revision. The watch is on the parent directory because
// editors often replace the file (rename-over) rather than write it.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	if b, err := os.ReadFile(w.path); err == nil {
		w.lastHash = hashBytes(b)
	}

	var debounce *time.Timer
	reload := func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		b, err := os.ReadFile(w.path)
		if err != nil {
			w.log.Warn().Err(err).Msg("config reload: read failed")
			return
		}
		h := hashBytes(b)
		if h == w.lastHash {
			return
		}
		cfg, err := Load(w.path)
		if err != nil {
			w.log.Warn().Err(err).Msg("config reload: keeping previous config")
			return
		}
		w.lastHash = h
		w.log.Info().Str("path", w.path).Msg("config reloaded")
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
