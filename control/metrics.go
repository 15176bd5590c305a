package control

import (
	"sync"
	"time"
)

// Diagnostics is a thread-safe key/value registry with a last-updated
// timestamp, holding a session's per-tick observability state (idle
// seconds, time remaining, carrier state).
type Diagnostics struct {
	mu      sync.RWMutex
	values  map[string]any
	updated time.Time
}

// NewDiagnostics returns an empty Diagnostics registry.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{values: make(map[string]any)}
}

// Set records a diagnostic value (e.g. "idle_secs", "time_left_secs",
// "carrier_ok") and stamps the update time.
func (d *Diagnostics) Set(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[key] = value
	d.updated = timeNow()
}

// GetSnapshot returns a copy of every recorded value.
func (d *Diagnostics) GetSnapshot() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// UpdatedAt reports when a value was last set.
func (d *Diagnostics) UpdatedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.updated
}

var timeNow = time.Now
