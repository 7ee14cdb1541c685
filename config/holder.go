package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadQuiet is how long the file watcher waits after the last event
// before reloading. An editor save typically emits several events in a
// burst; the quiet window folds the burst into one reload.
const reloadQuiet = 100 * time.Millisecond

// Holder provides thread-safe access to configuration with hot reload.
//
// Only logging settings take effect on reload; everything else (listen
// address, store, routes) is fixed at startup. See ReloadableFields.
type Holder struct {
	path   string
	logger zerolog.Logger

	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHolder loads the initial configuration from path and wraps it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Holder{
		path:   absPath,
		logger: logger,
		config: cfg,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration. Safe for concurrent use.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// OnChange registers a callback invoked after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Reload re-reads the file. On failure the previous configuration stays in
// effect and the error is returned.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	h.config = next
	callbacks := make([]func(*Config), len(h.onChange))
	copy(callbacks, h.onChange)
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, fn := range callbacks {
		fn(next)
	}

	h.logger.Info().Str("path", h.path).Msg("configuration reloaded")
	return nil
}

// WatchFile watches the config file and reloads after a quiet window. The
// parent directory is watched rather than the file itself so atomic saves
// (write to temp, rename over) keep working.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop(watcher)

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop is called.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. Safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

// watchLoop debounces file events. The timer is armed on the first matching
// event and pushed back by each following one, so a save burst (create,
// write, chmod) reloads once after it settles.
func (h *Holder) watchLoop(watcher *fsnotify.Watcher) {
	quiet := time.NewTimer(reloadQuiet)
	if !quiet.Stop() {
		<-quiet.C
	}
	armed := false

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(h.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			h.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("config file changed")
			if armed && !quiet.Stop() {
				<-quiet.C
			}
			quiet.Reset(reloadQuiet)
			armed = true

		case <-quiet.C:
			armed = false
			if err := h.Reload(); err != nil {
				h.logger.Error().Err(err).Msg("file watch reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(prev, next *Config) {
	if prev.Logging.Level != next.Logging.Level {
		h.logger.Info().
			Str("old", prev.Logging.Level).
			Str("new", next.Logging.Level).
			Msg("log level changed")
	}
	if prev.Logging.Format != next.Logging.Format {
		h.logger.Info().
			Str("old", prev.Logging.Format).
			Str("new", next.Logging.Format).
			Msg("log format changed")
	}
	if prev.Server.Addr() != next.Server.Addr() {
		h.logger.Warn().
			Str("old", prev.Server.Addr()).
			Str("new", next.Server.Addr()).
			Msg("server address changed, restart required to apply")
	}
	if prev.Store.Driver != next.Store.Driver || prev.Store.DSN != next.Store.DSN {
		h.logger.Warn().Msg("store configuration changed, restart required to apply")
	}
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return []string{
		"logging.level",
		"logging.format",
	}
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"server.host",
		"server.port",
		"store.driver",
		"store.dsn",
		"metrics.enabled",
		"docs.enabled",
		"seed.demo_data",
		"schema.export_path",
	}
}
