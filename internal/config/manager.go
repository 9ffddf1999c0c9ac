package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Manager owns the active Config and hot-reloads it from disk on
// change, using an atomic pointer swap so concurrent handlers always
// read a complete, consistent Config without locking.
type Manager struct {
	config atomic.Pointer[Config]

	path        string
	watcher     *fsnotify.Watcher
	onChange    []func(*Config)
	logger      *slog.Logger
	checksum    atomic.Value
	loadedAt    atomic.Value
	reloadCount atomic.Uint64
}

// NewManager loads path and returns a Manager wrapping the result. A nil
// logger falls back to slog.Default().
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path, logger: logger}
	if err := m.store(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the currently active configuration. Safe for concurrent
// use by any number of readers.
func (m *Manager) Get() *Config {
	return m.config.Load()
}

// OnChange registers a callback invoked, in registration order, after
// every successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.onChange = append(m.onChange, fn)
}

// Status reports metadata about the active configuration.
type Status struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	LoadedAt    time.Time `json:"loaded_at"`
	ReloadCount uint64    `json:"reload_count"`
}

// Status returns the Manager's current Status.
func (m *Manager) Status() Status {
	s := Status{Path: m.path, ReloadCount: m.reloadCount.Load()}
	if v, ok := m.checksum.Load().(string); ok {
		s.Checksum = v
	}
	if v, ok := m.loadedAt.Load().(time.Time); ok {
		s.LoadedAt = v
	}
	return s
}

// Watch starts an fsnotify watcher on the config path, debouncing rapid
// writes and reloading on settle. It returns once the watcher is
// established; reload failures are logged and leave the current
// configuration in place.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	if err := watcher.Add(m.path); err != nil {
		_ = watcher.Close()
		return err
	}

	go m.watchLoop(ctx)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context) {
	const debounceDelay = 500 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			_ = m.watcher.Close()
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					if err := m.Reload(); err != nil {
						m.logger.Error("failed to reload config, keeping current", "error", err)
					}
				})
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config watcher error", "error", err)
		}
	}
}

// Reload forces a reload from disk, atomically swapping in the new
// configuration only if it parses and validates successfully.
func (m *Manager) Reload() error {
	cfg, err := LoadFromFile(m.path)
	if err != nil {
		return err
	}
	if err := m.store(cfg); err != nil {
		return err
	}
	m.logger.Info("configuration reloaded successfully")
	for _, fn := range m.onChange {
		fn(cfg)
	}
	return nil
}

// Close stops the config watcher, if one was started.
func (m *Manager) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

func (m *Manager) store(cfg *Config) error {
	sum, err := checksum(cfg)
	if err != nil {
		return err
	}
	m.config.Store(cfg)
	m.checksum.Store(sum)
	m.loadedAt.Store(time.Now().UTC())
	m.reloadCount.Add(1)
	return nil
}

func checksum(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
