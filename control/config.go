// Package control holds a door session's live configuration store and
// runtime diagnostics: a mutex-guarded Config snapshot with reload
// listeners, loadable from an optional door.yaml file via
// gopkg.in/yaml.v3, plus programmatic overrides via SetConfig.
package control

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/doorkit/doorcore/doorerr"
)

// Config is the subset of DoorSession behavior an operator may override
// without recompiling: idle/time warning thresholds and whether the
// once-per-second status bar and event checks run at all.
type Config struct {
	MaxIdleSecs      int  `yaml:"max_idle_secs"`
	WarnAtMinutes    int  `yaml:"warn_at_minutes"`
	EventsEnabled    bool `yaml:"events_enabled"`
	StatusBarEnabled bool `yaml:"status_bar_enabled"`
}

// DefaultConfig returns the values DoorSession uses absent a door.yaml.
func DefaultConfig() Config {
	return Config{
		MaxIdleSecs:      300,
		WarnAtMinutes:    5,
		EventsEnabled:    true,
		StatusBarEnabled: true,
	}
}

// LoadConfig reads path and overlays its fields onto DefaultConfig. A
// missing file is not an error — door.yaml is optional — but a present,
// malformed file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, doorerr.Wrap(doorerr.CodeFatalIO, "control: read door.yaml", err).WithContext("path", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, doorerr.Wrap(doorerr.CodeFatalIO, "control: parse door.yaml", err).WithContext("path", path)
	}
	return cfg, nil
}

// ConfigStore is a dynamic, thread-safe holder of the active Config,
// with listener dispatch on every update so DoorSession's status bar
// and idle checks observe a reload without restarting the door.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(Config)
}

// NewConfigStore wraps an initial Config.
func NewConfigStore(initial Config) *ConfigStore {
	return &ConfigStore{config: initial}
}

// GetSnapshot returns the current Config.
func (cs *ConfigStore) GetSnapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// SetConfig replaces the active Config and notifies listeners.
func (cs *ConfigStore) SetConfig(cfg Config) {
	cs.mu.Lock()
	cs.config = cfg
	listeners := append([]func(Config){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		go fn(cfg)
	}
}

// OnReload registers a listener invoked (in its own goroutine) whenever
// SetConfig runs.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
