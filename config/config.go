// Package config loads the daemon's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tacho/core"
)

// Duration wraps time.Duration so values can be written as "100ms" or
// "1s" in the YAML file.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// SensorConfig mirrors core.Params in file-friendly units.
type SensorConfig struct {
	TimerFrequencyHz    uint32   `yaml:"timer_frequency_hz"`
	EdgesPerRotation    int      `yaml:"edges_per_rotation"`
	WheelCircumferenceM float64  `yaml:"wheel_circumference_m"`
	MinEdgePeriod       Duration `yaml:"min_edge_period"`
	MinUpdateInterval   Duration `yaml:"min_update_interval"`
	StallTimeout        Duration `yaml:"stall_timeout"`
}

// SerialConfig selects the MCU connection.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// TelemetryConfig controls the websocket status feed.
type TelemetryConfig struct {
	// Listen is the HTTP listen address; empty disables telemetry.
	Listen string `yaml:"listen"`
}

// Config is the daemon configuration.
type Config struct {
	Sensor       SensorConfig    `yaml:"sensor"`
	Serial       SerialConfig    `yaml:"serial"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
	PollInterval Duration        `yaml:"poll_interval"`
	LogLevel     string          `yaml:"log_level"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults and validates
// the sensor parameters.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.SensorParams().Validate(); err != nil {
		return nil, fmt.Errorf("sensor config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills in missing values with the canonical sensor
// parameters and sensible daemon settings.
func applyDefaults(cfg *Config) {
	p := core.DefaultParams()
	if cfg.Sensor.TimerFrequencyHz == 0 {
		cfg.Sensor.TimerFrequencyHz = p.TimerFrequency
	}
	if cfg.Sensor.EdgesPerRotation == 0 {
		cfg.Sensor.EdgesPerRotation = p.EdgesPerRotation
	}
	if cfg.Sensor.WheelCircumferenceM == 0 {
		cfg.Sensor.WheelCircumferenceM = p.WheelCircumference
	}
	if cfg.Sensor.MinEdgePeriod == 0 {
		cfg.Sensor.MinEdgePeriod = Duration(p.MinEdgePeriod)
	}
	if cfg.Sensor.MinUpdateInterval == 0 {
		cfg.Sensor.MinUpdateInterval = Duration(p.MinUpdateInterval)
	}
	if cfg.Sensor.StallTimeout == 0 {
		cfg.Sensor.StallTimeout = Duration(p.StallTimeout)
	}
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyACM0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 250000
	}
	if cfg.PollInterval == 0 {
		// Poll at the estimator's window size so every poll can commit.
		cfg.PollInterval = cfg.Sensor.MinUpdateInterval
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// SensorParams converts the file representation to core.Params.
func (c *Config) SensorParams() core.Params {
	return core.Params{
		TimerFrequency:     c.Sensor.TimerFrequencyHz,
		EdgesPerRotation:   c.Sensor.EdgesPerRotation,
		WheelCircumference: c.Sensor.WheelCircumferenceM,
		MinEdgePeriod:      time.Duration(c.Sensor.MinEdgePeriod),
		MinUpdateInterval:  time.Duration(c.Sensor.MinUpdateInterval),
		StallTimeout:       time.Duration(c.Sensor.StallTimeout),
	}
}
