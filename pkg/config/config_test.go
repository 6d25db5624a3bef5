package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Device.BaudRate != 115200 {
		t.Errorf("baud rate = %d, want 115200", cfg.Device.BaudRate)
	}
	if cfg.History.Capacity != 6 {
		t.Errorf("history capacity = %d, want 6", cfg.History.Capacity)
	}
	if cfg.Forwarding.Endpoint != "fhem" || cfg.Forwarding.Format != "structured" {
		t.Errorf("forwarding defaults = %+v", cfg.Forwarding)
	}
	if cfg.Forwarding.CodeVariable != "d_IRcode" || cfg.Forwarding.SensorVariable != "d_Climate" {
		t.Errorf("forwarding variables = %q/%q", cfg.Forwarding.CodeVariable, cfg.Forwarding.SensorVariable)
	}
	if cfg.Sensor.Interval != 60*time.Second {
		t.Errorf("sensor interval = %v, want 1m", cfg.Sensor.Interval)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
device:
  port: /dev/ttyUSB0
  baudrate: 57600
history:
  capacity: 5
forwarding:
  enabled: true
  host: automation.local
  port: 8083
  format: flat
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Device.Port != "/dev/ttyUSB0" || cfg.Device.BaudRate != 57600 {
		t.Errorf("device = %+v", cfg.Device)
	}
	if cfg.History.Capacity != 5 {
		t.Errorf("history capacity = %d, want 5", cfg.History.Capacity)
	}
	if !cfg.Forwarding.Enabled || cfg.Forwarding.Format != "flat" {
		t.Errorf("forwarding = %+v", cfg.Forwarding)
	}
	// Unset fields keep their defaults.
	if cfg.Forwarding.Endpoint != "fhem" {
		t.Errorf("endpoint = %q, want default fhem", cfg.Forwarding.Endpoint)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API port = %d, want default 8080", cfg.API.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "Bad Format",
			yaml: "forwarding:\n  format: xml\n",
		},
		{
			name: "Capacity Out Of Range",
			yaml: "history:\n  capacity: 1000\n",
		},
		{
			name: "Bad Port",
			yaml: "api:\n  port: 99999\n",
		},
		{
			name: "Not YAML",
			yaml: "{{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load should reject this configuration")
			}
		})
	}
}

func TestLoadMissingPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("an explicit missing path should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Device.Port = "/dev/ttyACM0"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Device.Port != "/dev/ttyACM0" {
		t.Errorf("port = %q after round trip", loaded.Device.Port)
	}
}

func TestRuntimeUpdate(t *testing.T) {
	rt := NewRuntime(DefaultConfig())

	if rt.Forwarding().Enabled {
		t.Fatal("forwarding should start disabled")
	}

	rt.Update(func(cfg *Config) {
		cfg.Forwarding.Enabled = true
		cfg.Forwarding.Host = "automation.local"
		cfg.Sensor.Interval = 2 * time.Minute
	})

	fwd := rt.Forwarding()
	if !fwd.Enabled || fwd.Host != "automation.local" {
		t.Errorf("forwarding after update = %+v", fwd)
	}
	if rt.Sensor().Interval != 2*time.Minute {
		t.Errorf("sensor interval = %v", rt.Sensor().Interval)
	}

	// Snapshots are copies; mutating one does not touch the runtime.
	snap := rt.Snapshot()
	snap.Forwarding.Host = "other"
	if rt.Forwarding().Host != "automation.local" {
		t.Error("snapshot mutation leaked into the runtime")
	}
}
