package config

import "sync"

// Runtime wraps a Config behind a lock so settings that may change while the
// daemon runs (forwarding target, format, sensor interval) are re-read on
// each use instead of captured at startup.
type Runtime struct {
	mu  sync.RWMutex
	cfg Config
}

// NewRuntime creates a runtime view over cfg.
func NewRuntime(cfg *Config) *Runtime {
	return &Runtime{cfg: *cfg}
}

// Snapshot returns a copy of the full configuration.
func (r *Runtime) Snapshot() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Forwarding returns the current forwarding settings.
func (r *Runtime) Forwarding() ForwardingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.Forwarding
}

// Sensor returns the current sensor settings.
func (r *Runtime) Sensor() SensorConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.Sensor
}

// Update applies fn to the configuration under the lock.
func (r *Runtime) Update(fn func(*Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.cfg)
}
