// Package config handles configuration loading, validation and runtime
// mutation for the irbridge daemon.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default config file locations.
var configPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./irbridge.yaml",
	"./irbridge.yml",
	"~/.config/irbridge/config.yaml",
	"/etc/irbridge/config.yaml",
}

// Config is the daemon configuration.
type Config struct {
	// Device configures the serial-attached IR transceiver.
	Device DeviceConfig `yaml:"device" json:"device"`

	// History configures the sent/received event buffers.
	History HistoryConfig `yaml:"history" json:"history"`

	// Forwarding configures the automation-server push.
	Forwarding ForwardingConfig `yaml:"forwarding" json:"forwarding"`

	// MQTT configures the optional MQTT mirror of forwarded events.
	MQTT MQTTConfig `yaml:"mqtt" json:"mqtt"`

	// Sensor configures climate sampling.
	Sensor SensorConfig `yaml:"sensor" json:"sensor"`

	// Rules configures the optional Lua event hook.
	Rules RulesConfig `yaml:"rules" json:"rules"`

	// Persistence configures the optional SQLite event archive.
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`

	// API configures the REST/WebSocket control surface.
	API APIConfig `yaml:"api" json:"api"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DeviceConfig holds serial transceiver settings.
type DeviceConfig struct {
	Port        string        `yaml:"port" json:"port"`
	BaudRate    int           `yaml:"baudrate" json:"baudrate"`
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`
}

// HistoryConfig holds event-buffer settings.
type HistoryConfig struct {
	// Capacity is the slot count of each history buffer.
	Capacity int `yaml:"capacity" json:"capacity" validate:"omitempty,min=1,max=32"`
}

// ForwardingConfig holds automation-server push settings. These fields are
// re-read on every use and may be changed at runtime through the API.
type ForwardingConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port" validate:"omitempty,min=1,max=65535"`

	// Endpoint is the server path component (no leading slash).
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Format selects the request encoding.
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=structured flat"`

	// CodeVariable and SensorVariable are the server-side variable names
	// targeted by IR-event and sensor pushes respectively.
	CodeVariable   string `yaml:"code_variable" json:"code_variable"`
	SensorVariable string `yaml:"sensor_variable" json:"sensor_variable"`
}

// MQTTConfig holds MQTT mirror settings.
type MQTTConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Broker         string        `yaml:"broker" json:"broker"`
	ClientID       string        `yaml:"client_id" json:"client_id"`
	Username       string        `yaml:"username" json:"username"`
	Password       string        `yaml:"password" json:"password"`
	Topic          string        `yaml:"topic" json:"topic"`
	QOS            int           `yaml:"qos" json:"qos" validate:"omitempty,min=0,max=2"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
}

// SensorConfig holds climate sampling settings.
type SensorConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// RulesConfig holds Lua hook settings.
type RulesConfig struct {
	// Script is the path to the Lua script; empty disables the hook.
	Script string `yaml:"script" json:"script"`
}

// PersistenceConfig holds event-archive settings.
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// APIConfig holds control-surface settings.
type APIConfig struct {
	Enabled bool       `yaml:"enabled" json:"enabled"`
	Port    int        `yaml:"port" json:"port" validate:"omitempty,min=1,max=65535"`
	Auth    AuthConfig `yaml:"auth" json:"auth"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	JWTSecret string   `yaml:"jwt_secret" json:"jwt_secret"`
	Keys      []string `yaml:"keys" json:"keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
	File   string `yaml:"file" json:"file"`
}

// Load loads configuration from file, probing default locations when no
// path is given. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}

	for _, p := range configPaths {
		if p[0] == '~' {
			home, err := os.UserHomeDir()
			if err == nil {
				p = filepath.Join(home, p[2:])
			}
		}

		if _, err := os.Stat(p); err == nil {
			return loadFile(p)
		}
	}

	return DefaultConfig(), nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func Validate(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

// Save saves configuration to file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			BaudRate:    115200,
			ReadTimeout: 100 * time.Millisecond,
		},
		History: HistoryConfig{
			Capacity: 6,
		},
		Forwarding: ForwardingConfig{
			Enabled:        false,
			Port:           8083,
			Endpoint:       "fhem",
			Format:         "structured",
			CodeVariable:   "d_IRcode",
			SensorVariable: "d_Climate",
		},
		MQTT: MQTTConfig{
			Topic:          "irbridge/events",
			ConnectTimeout: 10 * time.Second,
		},
		Sensor: SensorConfig{
			Interval: 60 * time.Second,
		},
		API: APIConfig{
			Enabled: true,
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}
