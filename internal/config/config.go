package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/bmp180_thermometer/internal/clock"
)

// Config holds all application configuration values.
type Config struct {
	I2C    I2CConfig    `yaml:"i2c"`
	Sensor SensorConfig `yaml:"sensor"`
	Policy PolicyConfig `yaml:"policy"`
	Report ReportConfig `yaml:"report"`
	Web    WebConfig    `yaml:"web"`
}

type I2CConfig struct {
	Bus        string `yaml:"bus"` // periph i2creg name, "" = first bus
	SensorAddr uint8  `yaml:"sensor_addr"`
}

type SensorConfig struct {
	ConversionWait time.Duration `yaml:"conversion_wait"`
	Timer          string        `yaml:"timer"` // "periodic" or "oneshot"
	RequireChipID  bool          `yaml:"require_chip_id"`
}

// PolicyConfig decides what the acquisition loop does with failures.
type PolicyConfig struct {
	// MaxConsecutiveFailures stops the loop after that many failed cycles
	// in a row. 0 never stops.
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	CalibrationAttempts    int           `yaml:"calibration_attempts"`
	RetryBackoff           time.Duration `yaml:"retry_backoff"`
	MaxBackoff             time.Duration `yaml:"max_backoff"`
}

type ReportConfig struct {
	Stdout  bool          `yaml:"stdout"`
	Serial  SerialConfig  `yaml:"serial"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Display DisplayConfig `yaml:"display"`
}

type SerialConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Port       string `yaml:"port"`
	BaudRate   uint   `yaml:"baud_rate"`
	LineEnding string `yaml:"line_ending"`
}

type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker"`
	ClientID        string `yaml:"client_id"`
	ClientIDConsole string `yaml:"client_id_console"`
	ClientIDWeb     string `yaml:"client_id_web"`
	TopicLines      string `yaml:"topic_lines"`
	TopicReading    string `yaml:"topic_reading"`
}

type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
}

type WebConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// Package-level singleton, same shape as every other service in this repo:
// InitGlobal sets it once, Get reads it under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		I2C: I2CConfig{SensorAddr: 0x77},
		Sensor: SensorConfig{
			ConversionWait: time.Second,
			Timer:          "periodic",
		},
		Policy: PolicyConfig{
			MaxConsecutiveFailures: 5,
			CalibrationAttempts:    3,
			RetryBackoff:           250 * time.Millisecond,
			MaxBackoff:             5 * time.Second,
		},
		Report: ReportConfig{
			Stdout: true,
			Serial: SerialConfig{
				Port:       "/dev/serial0",
				BaudRate:   9600,
				LineEnding: "\r\n",
			},
			MQTT: MQTTConfig{
				Broker:          "tcp://localhost:1883",
				ClientID:        "bmp180-thermometer",
				ClientIDConsole: "bmp180-console",
				ClientIDWeb:     "bmp180-web",
				TopicLines:      "thermometer/lines",
				TopicReading:    "thermometer/reading",
			},
		},
		Web: WebConfig{Port: 8080, StaticDir: "web"},
	}
}

// Load reads the YAML configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks ranges and required fields.
func (c *Config) validate() error {
	if c.I2C.SensorAddr > 0x7F {
		return fmt.Errorf("i2c.sensor_addr must be a 7-bit address, got 0x%X", c.I2C.SensorAddr)
	}
	if c.Sensor.ConversionWait < clock.MinConversionTime {
		return fmt.Errorf("sensor.conversion_wait must be at least %v, got %v", clock.MinConversionTime, c.Sensor.ConversionWait)
	}
	switch c.Sensor.Timer {
	case "periodic", "oneshot":
	default:
		return fmt.Errorf("sensor.timer must be periodic or oneshot, got %q", c.Sensor.Timer)
	}
	if c.Policy.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("policy.max_consecutive_failures must be >= 0, got %d", c.Policy.MaxConsecutiveFailures)
	}
	if c.Policy.CalibrationAttempts < 1 {
		return fmt.Errorf("policy.calibration_attempts must be >= 1, got %d", c.Policy.CalibrationAttempts)
	}
	if c.Policy.RetryBackoff < 0 || c.Policy.MaxBackoff < 0 {
		return fmt.Errorf("policy backoff durations must not be negative")
	}
	if c.Report.Serial.Enabled {
		if c.Report.Serial.Port == "" {
			return fmt.Errorf("report.serial.port is required when serial is enabled")
		}
		if c.Report.Serial.BaudRate == 0 {
			return fmt.Errorf("report.serial.baud_rate is required when serial is enabled")
		}
	}
	if c.Report.MQTT.Enabled && c.Report.MQTT.Broker == "" {
		return fmt.Errorf("report.mqtt.broker is required when mqtt is enabled")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be 1-65535, got %d", c.Web.Port)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return that first result.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
