// Package config loads dht-sensor settings from defaults, an optional YAML
// file, DHT_SENSOR_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/dht-sensor/internal/capture"
	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/gpio"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DHT_SENSOR"

// Config holds the daemon settings.
type Config struct {
	// Chip is the GPIO character device name, e.g. "gpiochip0".
	Chip string `mapstructure:"chip"`
	// Line is the line offset the sensor data pin is wired to.
	Line int `mapstructure:"line"`
	// Interval is the time between readings. DHT22 sensors need at least 2s.
	Interval time.Duration `mapstructure:"interval"`
	// WakeDelay is how long the line is held low to wake the sensor.
	WakeDelay time.Duration `mapstructure:"wake_delay"`
	// PollTimeout is the longest gap allowed between two edges.
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	Broker      string        `mapstructure:"broker"`
	ClientID    string        `mapstructure:"client_id"`
	// Heartbeat is the system event interval; 0 disables heartbeats.
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	// HTTP is the status server address; empty disables it.
	HTTP     string `mapstructure:"http"`
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Chip:        gpio.DefaultChip,
		Line:        gpio.DefaultLine,
		Interval:    2 * time.Second,
		WakeDelay:   dht.DefaultWakeDelay,
		PollTimeout: capture.PollTimeout,
		Broker:      "tcp://192.168.1.200:1883",
		ClientID:    "dht-sensor",
		Heartbeat:   15 * time.Minute,
		HTTP:        ":80",
		LogLevel:    "info",
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"chip":         "chip",
	"line":         "line",
	"interval":     "interval",
	"wake-delay":   "wake_delay",
	"poll-timeout": "poll_timeout",
	"broker":       "broker",
	"client-id":    "client_id",
	"heartbeat":    "heartbeat",
	"http":         "http",
	"log-level":    "log_level",
}

// RegisterFlags adds one flag per setting to fs, defaulted from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("chip", d.Chip, "GPIO chip name")
	fs.Int("line", d.Line, "GPIO line offset of the sensor data pin")
	fs.Duration("interval", d.Interval, "Time between readings")
	fs.Duration("wake-delay", d.WakeDelay, "How long to hold the line low to wake the sensor")
	fs.Duration("poll-timeout", d.PollTimeout, "Longest wait for the next edge")
	fs.String("broker", d.Broker, "MQTT broker address")
	fs.String("client-id", d.ClientID, "MQTT client ID")
	fs.Duration("heartbeat", d.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.String("http", d.HTTP, "HTTP status address (empty to disable)")
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("chip", d.Chip)
	v.SetDefault("line", d.Line)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("wake_delay", d.WakeDelay)
	v.SetDefault("poll_timeout", d.PollTimeout)
	v.SetDefault("broker", d.Broker)
	v.SetDefault("client_id", d.ClientID)
	v.SetDefault("heartbeat", d.Heartbeat)
	v.SetDefault("http", d.HTTP)
	v.SetDefault("log_level", d.LogLevel)
}

// Load resolves the configuration into v and validates it. path names an
// optional YAML file; fs may be nil.
func Load(v *viper.Viper, fs *pflag.FlagSet, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}
