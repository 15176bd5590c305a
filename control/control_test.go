package control

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil for missing file", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("LoadConfig() = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfigOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "door.yaml")
	content := "max_idle_secs: 120\nevents_enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxIdleSecs != 120 {
		t.Fatalf("MaxIdleSecs = %d, want 120", cfg.MaxIdleSecs)
	}
	if cfg.EventsEnabled {
		t.Fatal("EventsEnabled = true, want false (overridden)")
	}
	if cfg.WarnAtMinutes != DefaultConfig().WarnAtMinutes {
		t.Fatalf("WarnAtMinutes = %d, want unmodified default %d", cfg.WarnAtMinutes, DefaultConfig().WarnAtMinutes)
	}
}

func TestConfigStoreNotifiesListenersOnSet(t *testing.T) {
	store := NewConfigStore(DefaultConfig())

	var mu sync.Mutex
	var got Config
	done := make(chan struct{})
	store.OnReload(func(c Config) {
		mu.Lock()
		got = c
		mu.Unlock()
		close(done)
	})

	updated := DefaultConfig()
	updated.MaxIdleSecs = 42
	store.SetConfig(updated)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnReload listener was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.MaxIdleSecs != 42 {
		t.Fatalf("listener saw MaxIdleSecs = %d, want 42", got.MaxIdleSecs)
	}
	if store.GetSnapshot().MaxIdleSecs != 42 {
		t.Fatalf("GetSnapshot().MaxIdleSecs = %d, want 42", store.GetSnapshot().MaxIdleSecs)
	}
}

func TestDiagnosticsSnapshot(t *testing.T) {
	d := NewDiagnostics()
	d.Set("idle_secs", 12)
	d.Set("carrier_ok", true)

	snap := d.GetSnapshot()
	if snap["idle_secs"] != 12 || snap["carrier_ok"] != true {
		t.Fatalf("GetSnapshot() = %+v, want idle_secs=12 carrier_ok=true", snap)
	}
}
